package scoring

import (
	"fmt"

	"github.com/okian/pulse/internal/domain/model"
)

// Default scoring settings.
const (
	DefaultWinsorizeLowerPct   = 1.0
	DefaultWinsorizeUpperPct   = 99.0
	DefaultShrinkagePrior      = 10.0
	DefaultMinIntervalDays     = 30.0
	DefaultMaxIntervalDays     = 730.0
	DefaultMaxSpacingCV        = 0.5
	DefaultTypicalIntervalDays = 90.0
	DefaultMinPeerSize         = 5
	DefaultConfidenceZ         = 1.96

	// maxPeerStandardError caps the delta-method error of a peer percentile.
	maxPeerStandardError = 25.0
)

// TNVSettings bounds when time-normalized velocity is computed.
type TNVSettings struct {
	MinIntervalDays     float64
	MaxIntervalDays     float64
	MaxSpacingCV        float64
	TypicalIntervalDays float64
}

// Settings is every tunable the engine reads. It is passed explicitly so
// alternate configurations can run side by side.
type Settings struct {
	WinsorizeLowerPct  float64
	WinsorizeUpperPct  float64
	ShrinkagePrior     float64
	TNV                TNVSettings
	MinPeerSize        int
	PercentileFallback bool
	ConfidenceZ        float64
	ProgressBands      CategoryBands
	HealthBands        CategoryBands
	ProgressWeights    model.WeightCatalog
	HealthWeights      model.WeightCatalog
}

// DefaultSettings returns the engine defaults.
func DefaultSettings() Settings {
	return Settings{
		WinsorizeLowerPct: DefaultWinsorizeLowerPct,
		WinsorizeUpperPct: DefaultWinsorizeUpperPct,
		ShrinkagePrior:    DefaultShrinkagePrior,
		TNV: TNVSettings{
			MinIntervalDays:     DefaultMinIntervalDays,
			MaxIntervalDays:     DefaultMaxIntervalDays,
			MaxSpacingCV:        DefaultMaxSpacingCV,
			TypicalIntervalDays: DefaultTypicalIntervalDays,
		},
		MinPeerSize:        DefaultMinPeerSize,
		PercentileFallback: true,
		ConfidenceZ:        DefaultConfidenceZ,
		ProgressBands:      DefaultProgressBands(),
		HealthBands:        DefaultHealthBands(),
		ProgressWeights:    model.DefaultProgressWeights(),
		HealthWeights:      model.DefaultHealthWeights(),
	}
}

// Validate rejects settings the engine cannot run with.
func (s Settings) Validate() error {
	// The window must straddle the median so capping only ever shrinks an effect.
	if s.WinsorizeLowerPct <= 0 || s.WinsorizeLowerPct >= 50 || s.WinsorizeUpperPct <= 50 || s.WinsorizeUpperPct >= 100 {
		return fmt.Errorf("%w: winsorize bounds [%.2f, %.2f] must satisfy 0 < lower < 50 < upper < 100",
			ErrInvalidSettings, s.WinsorizeLowerPct, s.WinsorizeUpperPct)
	}
	if s.ShrinkagePrior < 0 {
		return fmt.Errorf("%w: negative shrinkage prior", ErrInvalidSettings)
	}
	if s.TNV.MinIntervalDays <= 0 || s.TNV.MaxIntervalDays < s.TNV.MinIntervalDays {
		return fmt.Errorf("%w: tnv interval [%.1f, %.1f]", ErrInvalidSettings, s.TNV.MinIntervalDays, s.TNV.MaxIntervalDays)
	}
	if s.TNV.MaxSpacingCV < 0 || s.TNV.TypicalIntervalDays <= 0 {
		return fmt.Errorf("%w: tnv spacing cv %.2f, typical interval %.1f", ErrInvalidSettings, s.TNV.MaxSpacingCV, s.TNV.TypicalIntervalDays)
	}
	if s.MinPeerSize < 1 {
		return fmt.Errorf("%w: min peer size %d", ErrInvalidSettings, s.MinPeerSize)
	}
	if s.ConfidenceZ <= 0 {
		return fmt.Errorf("%w: confidence z %.2f", ErrInvalidSettings, s.ConfidenceZ)
	}
	if err := s.ProgressBands.Validate(); err != nil {
		return fmt.Errorf("progress bands: %w", err)
	}
	if err := s.HealthBands.Validate(); err != nil {
		return fmt.Errorf("health bands: %w", err)
	}
	if err := s.ProgressWeights.Validate(model.FamilyProgress); err != nil {
		return fmt.Errorf("progress weights: %w", err)
	}
	if err := s.HealthWeights.Validate(model.FamilyHealth); err != nil {
		return fmt.Errorf("health weights: %w", err)
	}
	return nil
}

// Bands returns the family's category bands.
func (s Settings) Bands(family model.ModelFamily) CategoryBands {
	if family == model.FamilyHealth {
		return s.HealthBands
	}
	return s.ProgressBands
}

// Weights returns the family's weight catalog.
func (s Settings) Weights(family model.ModelFamily) model.WeightCatalog {
	if family == model.FamilyHealth {
		return s.HealthWeights
	}
	return s.ProgressWeights
}
