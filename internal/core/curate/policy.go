// Package curate reduces raw provider payloads to bounded, annotated
// responses: liquid near-the-money option contracts and classified indicator
// signals. Curation never mutates its input.
package curate

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Policy controls options and indicator curation.
type Policy struct {
	// MoneynessBand is the allowed distance from the underlying price, in
	// percent.
	MoneynessBand float64 `json:"moneyness_band" mapstructure:"moneyness_band" validate:"gt=0,lte=100"`
	// A contract is liquid when volume > MinVolume, open interest >
	// MinOpenInterest, or it has a two-sided quote.
	MinVolume       int64 `json:"min_volume" mapstructure:"min_volume" validate:"gte=0"`
	MinOpenInterest int64 `json:"min_open_interest" mapstructure:"min_open_interest" validate:"gte=0"`
	MaxPerSide      int   `json:"max_per_side" mapstructure:"max_per_side" validate:"gte=1"`
	// Expirations whose surviving volume is below this are dropped.
	MinExpirationVolume int64 `json:"min_expiration_volume" mapstructure:"min_expiration_volume" validate:"gte=0"`
	MaxExpirations      int   `json:"max_expirations" mapstructure:"max_expirations" validate:"gte=1"`
	SignalPoints        int   `json:"signal_points" mapstructure:"signal_points" validate:"gte=3"`
	DisplayPoints       int   `json:"display_points" mapstructure:"display_points" validate:"gtefield=SignalPoints"`
}

// DefaultPolicy returns the stock curation policy.
func DefaultPolicy() Policy {
	return Policy{
		MoneynessBand:       15,
		MinVolume:           0,
		MinOpenInterest:     10,
		MaxPerSide:          20,
		MinExpirationVolume: 50,
		MaxExpirations:      10,
		SignalPoints:        5,
		DisplayPoints:       50,
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func policyValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks policy bounds.
func (p Policy) Validate() error {
	err := policyValidator().Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid curation policy: %w", err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid curation policy: %s", strings.Join(parts, ", "))
}

// Summary describes how much curation removed.
type Summary struct {
	OriginalCount    int     `json:"original_count"`
	CuratedCount     int     `json:"curated_count"`
	ReductionPercent float64 `json:"reduction_percent"`
	Policy           Policy  `json:"policy"`
}

func newSummary(original, curated int, policy Policy) Summary {
	return Summary{
		OriginalCount:    original,
		CuratedCount:     curated,
		ReductionPercent: reductionPercent(original, curated),
		Policy:           policy,
	}
}

// reductionPercent returns (1 - curated/original) * 100 rounded to one
// decimal place.
func reductionPercent(original, curated int) float64 {
	if original <= 0 {
		return 0
	}
	kept := decimal.NewFromInt(int64(curated)).Div(decimal.NewFromInt(int64(original)))
	return decimal.NewFromInt(1).Sub(kept).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
}
