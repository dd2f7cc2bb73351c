package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRatePolicyIsValid(t *testing.T) {
	assert.NoError(t, validateRatePolicy(DefaultRatePolicy()))
}

func TestValidateRatePolicy(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RatePolicy)
	}{
		{"zero coverage target", func(p *RatePolicy) { p.TargetCoverageRatio = 0 }},
		{"negative class increase", func(p *RatePolicy) { p.MaxClassIncreasePct = -1 }},
		{"zero step", func(p *RatePolicy) { p.ScaleStepPct = 0 }},
		{"max below step", func(p *RatePolicy) { p.MaxScalePct = 0.1; p.ScaleStepPct = 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := DefaultRatePolicy()
			tt.mutate(&policy)
			assert.Error(t, validateRatePolicy(policy))
		})
	}
}

func TestStaticRatePolicyHolder(t *testing.T) {
	policy := RatePolicy{
		TargetCoverageRatio: 1.2,
		MaxClassIncreasePct: 10,
		ScaleStepPct:        1,
		MaxScalePct:         20,
	}

	holder := NewStaticRatePolicyHolder(policy)
	require.NotNil(t, holder)
	assert.Equal(t, policy, holder.Get())
}
