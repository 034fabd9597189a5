package risk

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Factor names.
const (
	FactorFailedAttempts   = "failed_attempts"
	FactorUnusualLocation  = "unusual_location"
	FactorTimeRisk         = "time_risk"
	FactorPreviousBreaches = "previous_breaches"
	FactorDeviceRisk       = "device_risk"
	FactorLoginVelocity    = "login_velocity"
)

var knownFactors = []string{
	FactorFailedAttempts, FactorUnusualLocation, FactorTimeRisk,
	FactorPreviousBreaches, FactorDeviceRisk, FactorLoginVelocity,
}

var ErrInvalidPolicy = errors.New("invalid risk policy")

// Policy holds factor weights and the score thresholds between levels.
type Policy struct {
	Weights    map[string]float64 `yaml:"weights"`
	Thresholds Thresholds         `yaml:"thresholds"`
}

type Thresholds struct {
	// Scores below Low are low risk; scores at or above High are high risk.
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

func DefaultPolicy() Policy {
	return Policy{
		Weights: map[string]float64{
			FactorFailedAttempts:   0.25,
			FactorUnusualLocation:  0.20,
			FactorTimeRisk:         0.10,
			FactorPreviousBreaches: 0.15,
			FactorDeviceRisk:       0.15,
			FactorLoginVelocity:    0.15,
		},
		Thresholds: Thresholds{Low: 0.3, High: 0.7},
	}
}

func (p Policy) Validate() error {
	if !finite(p.Thresholds.Low) || !finite(p.Thresholds.High) {
		return fmt.Errorf("%w: thresholds must be finite", ErrInvalidPolicy)
	}
	if p.Thresholds.Low < 0 || p.Thresholds.High > 1 {
		return fmt.Errorf("%w: thresholds must lie in [0,1]", ErrInvalidPolicy)
	}
	if p.Thresholds.Low >= p.Thresholds.High {
		return fmt.Errorf("%w: low threshold %.2f must be below high %.2f", ErrInvalidPolicy, p.Thresholds.Low, p.Thresholds.High)
	}
	var total float64
	for name, w := range p.Weights {
		if !isKnownFactor(name) {
			return fmt.Errorf("%w: unknown factor %q", ErrInvalidPolicy, name)
		}
		if !finite(w) {
			return fmt.Errorf("%w: weight for %s must be finite", ErrInvalidPolicy, name)
		}
		if w < 0 {
			return fmt.Errorf("%w: negative weight for %s", ErrInvalidPolicy, name)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("%w: weights sum to zero", ErrInvalidPolicy)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (p Policy) clone() Policy {
	w := make(map[string]float64, len(p.Weights))
	for k, v := range p.Weights {
		w[k] = v
	}
	p.Weights = w
	return p
}

// LoadPolicyFile reads a YAML policy. Factors missing from the file keep
// their default weights; the result is validated.
func LoadPolicyFile(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, err
	}
	p := DefaultPolicy()
	var file Policy
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Policy{}, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	for k, v := range file.Weights {
		p.Weights[k] = v
	}
	if file.Thresholds != (Thresholds{}) {
		p.Thresholds = file.Thresholds
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func isKnownFactor(name string) bool {
	for _, f := range knownFactors {
		if f == name {
			return true
		}
	}
	return false
}

func sortedFactors(weights map[string]float64) []string {
	names := make([]string, 0, len(weights))
	for n := range weights {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
