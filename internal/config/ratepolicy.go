package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RatePolicy holds board-approved constraints for rate optimization runs.
type RatePolicy struct {
	TargetCoverageRatio float64 `mapstructure:"targetCoverageRatio"`
	MaxClassIncreasePct float64 `mapstructure:"maxClassIncreasePct"`
	ReserveTarget       float64 `mapstructure:"reserveTarget"`
	ScaleStepPct        float64 `mapstructure:"scaleStepPct"`
	MaxScalePct         float64 `mapstructure:"maxScalePct"`
}

func DefaultRatePolicy() RatePolicy {
	return RatePolicy{
		TargetCoverageRatio: 1.15,
		MaxClassIncreasePct: 12.5,
		ReserveTarget:       250_000,
		ScaleStepPct:        0.5,
		MaxScalePct:         25,
	}
}

type RatePolicyHolder struct {
	current atomic.Value // holds RatePolicy
}

func NewRatePolicyHolder() (*RatePolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("ratepolicy")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/ratewise/config")
	v.AddConfigPath("/etc/ratewise")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RATEWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultRatePolicy()
		v.SetDefault("policy.targetCoverageRatio", defaults.TargetCoverageRatio)
		v.SetDefault("policy.maxClassIncreasePct", defaults.MaxClassIncreasePct)
		v.SetDefault("policy.reserveTarget", defaults.ReserveTarget)
		v.SetDefault("policy.scaleStepPct", defaults.ScaleStepPct)
		v.SetDefault("policy.maxScalePct", defaults.MaxScalePct)
	}

	var policy RatePolicy
	if err := v.UnmarshalKey("policy", &policy); err != nil {
		return nil, err
	}
	if err := validateRatePolicy(policy); err != nil {
		return nil, err
	}

	holder := &RatePolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RatePolicy
		if err := v.UnmarshalKey("policy", &updated); err != nil {
			log.Printf("[rate-policy] reload failed: %v", err)
			return
		}
		if err := validateRatePolicy(updated); err != nil {
			log.Printf("[rate-policy] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[rate-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

func NewStaticRatePolicyHolder(policy RatePolicy) *RatePolicyHolder {
	holder := &RatePolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func (h *RatePolicyHolder) Get() RatePolicy {
	return h.current.Load().(RatePolicy)
}

func validateRatePolicy(policy RatePolicy) error {
	if policy.TargetCoverageRatio <= 0 {
		return errors.New("policy.targetCoverageRatio must be positive")
	}
	if policy.MaxClassIncreasePct < 0 {
		return errors.New("policy.maxClassIncreasePct cannot be negative")
	}
	if policy.ScaleStepPct <= 0 {
		return errors.New("policy.scaleStepPct must be positive")
	}
	if policy.MaxScalePct < policy.ScaleStepPct {
		return errors.New("policy.maxScalePct must cover at least one step")
	}
	return nil
}
