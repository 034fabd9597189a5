// Package risk scores a session from observable signals and maps the score
// to the authentication factors the session must satisfy.
//
// Scores lie in [0,1]. Required factors are nested prefixes of
// password, captcha, face, so a higher score never drops a factor.
package risk

import (
	"fmt"
	"sync/atomic"
)

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

func (l Level) rank() int {
	switch l {
	case LevelMedium:
		return 1
	case LevelHigh:
		return 2
	default:
		return 0
	}
}

func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case "":
		return "", nil
	case LevelLow, LevelMedium, LevelHigh:
		return Level(s), nil
	}
	return "", fmt.Errorf("unknown risk level %q", s)
}

type AuthFactor string

const (
	AuthPassword AuthFactor = "password"
	AuthCaptcha  AuthFactor = "captcha"
	AuthFace     AuthFactor = "face"
)

var factorLadder = []AuthFactor{AuthPassword, AuthCaptcha, AuthFace}

// RequiredFactors returns the factors demanded at level, in order.
func RequiredFactors(level Level) []AuthFactor {
	out := make([]AuthFactor, level.rank()+1)
	copy(out, factorLadder)
	return out
}

// SessionContext carries the signals of one authentication or session event.
// Nil pointers mean the signal is unknown.
type SessionContext struct {
	UserID string

	DeviceFingerprint string
	// KnownDevice is true when the fingerprint was seen for this user before.
	KnownDevice bool
	DeviceType  string

	GeoDeltaKm         *float64
	LocalHour          *int
	LoginsLastHour     int
	RecentFailures     int
	DaysSinceLastLogin *int

	// MinLevel is a manual override. It can raise the computed level, never lower it.
	MinLevel Level
}

type FactorScore struct {
	Score       float64
	Description string
}

type Assessment struct {
	Score           float64
	Level           Level
	Overridden      bool
	Factors         map[string]FactorScore
	RequiredFactors []AuthFactor
}

type Assessor struct {
	policy atomic.Pointer[Policy]
}

func NewAssessor(p Policy) (*Assessor, error) {
	a := &Assessor{}
	if err := a.SetPolicy(p); err != nil {
		return nil, err
	}
	return a, nil
}

// SetPolicy swaps the active policy. An invalid policy is rejected and the
// current one stays in effect.
func (a *Assessor) SetPolicy(p Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	cp := p.clone()
	a.policy.Store(&cp)
	return nil
}

func (a *Assessor) Policy() Policy {
	return a.policy.Load().clone()
}

// Assess has no side effects.
func (a *Assessor) Assess(sc SessionContext) Assessment {
	p := a.policy.Load()
	factors := scoreFactors(sc)

	var sum, total float64
	for _, name := range sortedFactors(p.Weights) {
		w := p.Weights[name]
		sum += w * factors[name].Score
		total += w
	}
	score := clamp(sum / total)

	level := p.levelFor(score)
	overridden := false
	if sc.MinLevel.rank() > level.rank() {
		level = sc.MinLevel
		overridden = true
	}

	return Assessment{
		Score:           score,
		Level:           level,
		Overridden:      overridden,
		Factors:         factors,
		RequiredFactors: RequiredFactors(level),
	}
}

func (p *Policy) levelFor(score float64) Level {
	switch {
	case score < p.Thresholds.Low:
		return LevelLow
	case score < p.Thresholds.High:
		return LevelMedium
	default:
		return LevelHigh
	}
}

func clamp(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
