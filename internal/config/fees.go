package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fixwell/backoffice/internal/finance"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// feeConfig is the on-disk shape of the fee schedule.
type feeConfig struct {
	TierRates       map[string]float64 `mapstructure:"tierRates"`
	ProcessingRate  float64            `mapstructure:"processingRate"`
	ProcessingFixed float64            `mapstructure:"processingFixed"`
}

// FeeScheduleHolder serves the current fee schedule to the financial engine.
// The schedule reloads from fees.yml without a restart; jobs completed under
// an older schedule keep their computed breakdown (snapshot semantics).
type FeeScheduleHolder struct {
	current atomic.Value // holds finance.FeeSchedule
}

func NewFeeScheduleHolder() (*FeeScheduleHolder, error) {
	v := viper.New()

	v.SetConfigName("fees")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/backoffice/config")
	v.AddConfigPath("/etc/backoffice")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BACKOFFICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	holder := &FeeScheduleHolder{}
	sched, err := loadSchedule(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(sched)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := loadSchedule(v)
		if err != nil {
			log.Printf("[fee-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[fee-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticFeeScheduleHolder wraps a fixed schedule, with no file watching.
func NewStaticFeeScheduleHolder(sched finance.FeeSchedule) *FeeScheduleHolder {
	holder := &FeeScheduleHolder{}
	holder.current.Store(sched)
	return holder
}

func (h *FeeScheduleHolder) Get() finance.FeeSchedule {
	return h.current.Load().(finance.FeeSchedule)
}

func loadSchedule(v *viper.Viper) (finance.FeeSchedule, error) {
	if !v.IsSet("fees") {
		return finance.DefaultFeeSchedule(), nil
	}

	var cfg feeConfig
	if err := v.UnmarshalKey("fees", &cfg); err != nil {
		return finance.FeeSchedule{}, err
	}

	sched := finance.DefaultFeeSchedule()
	if cfg.ProcessingRate > 0 {
		sched.ProcessingRate = cfg.ProcessingRate
	}
	if cfg.ProcessingFixed > 0 {
		sched.ProcessingFixed = cfg.ProcessingFixed
	}
	for raw, rate := range cfg.TierRates {
		tier := finance.ParseTier(raw)
		if rate < 0 || rate >= 1 {
			return finance.FeeSchedule{}, errors.New("fees.tierRates must be in [0, 1)")
		}
		sched.TierRates[tier] = rate
	}
	return sched, nil
}
