// Package selection turns scored steps into the ordered list of decision points
// worth rehearsing.
//
// The [Selector] keeps a bounded, geographically spaced subset of the
// highest-scoring steps, adds the step leading into each selected junction, and
// trims the result to a hard maximum. Output is always in route order.
package selection

import (
	"math"
	"sort"

	"rehearse/internal/geo"
	"rehearse/internal/scoring"
)

// Config holds the selection limits.
type Config struct {
	// MinPoints and MaxPoints clamp the target count. MaxPoints is also the
	// hard cap applied after lead-in steps are added.
	MinPoints int `mapstructure:"min_points"`
	MaxPoints int `mapstructure:"max_points"`

	// The target count is round(km / KilometersPerPoint) + BasePoints, clamped.
	BasePoints         int     `mapstructure:"base_points"`
	KilometersPerPoint float64 `mapstructure:"kilometers_per_point"`

	// SpacingMeters is the minimum great-circle distance between independently
	// selected points.
	SpacingMeters float64 `mapstructure:"spacing_meters"`

	// LeadInMinMeters: a predecessor longer than this is kept as a lead-in.
	LeadInMinMeters float64 `mapstructure:"lead_in_min_meters"`

	// DecisionThreshold is the score at which a point is flagged as a
	// high-stakes decision point. It does not affect selection.
	DecisionThreshold int `mapstructure:"decision_threshold"`
}

// DefaultConfig returns the standard selection limits.
func DefaultConfig() Config {
	return Config{
		MinPoints:          6,
		MaxPoints:          12,
		BasePoints:         5,
		KilometersPerPoint: 7,
		SpacingMeters:      150,
		LeadInMinMeters:    40,
		DecisionThreshold:  8,
	}
}

// Selector picks decision points from scored steps. It holds no per-run state.
type Selector struct {
	cfg      Config
	patterns Matcher
}

// Matcher reports whether an instruction reads as preparation for a maneuver.
// [scoring.Scorer] satisfies it.
type Matcher interface {
	IsPrepare(text string) bool
}

// NewSelector creates a [Selector]. prepare decides whether a predecessor step
// qualifies as a lead-in regardless of its length; it may be nil.
func NewSelector(cfg Config, prepare Matcher) *Selector {
	return &Selector{cfg: cfg, patterns: prepare}
}

// TargetCount returns the ideal number of decision points for a route of the
// given length in meters.
func (s *Selector) TargetCount(totalMeters float64) int {
	perPoint := s.cfg.KilometersPerPoint
	if perPoint <= 0 {
		perPoint = 1
	}
	km := math.Max(totalMeters, 0) / 1000
	n := int(math.Round(km/perPoint)) + s.cfg.BasePoints
	if n < s.cfg.MinPoints {
		n = s.cfg.MinPoints
	}
	if n > s.cfg.MaxPoints {
		n = s.cfg.MaxPoints
	}
	return n
}

// Candidates returns the steps eligible for selection: positive score and not
// excluded.
func Candidates(scored []scoring.ScoredStep) []scoring.ScoredStep {
	var out []scoring.ScoredStep
	for _, s := range scored {
		if s.Score > 0 && !s.Exclude {
			out = append(out, s)
		}
	}
	return out
}

type pick struct {
	step   scoring.ScoredStep
	leadIn bool
}

// Select returns the decision points for a scored route. scored must be the
// full flattened list in route order, so that each step's predecessor is at
// OrderIndex-1. An empty result means there is nothing to rehearse.
func (s *Selector) Select(scored []scoring.ScoredStep, totalMeters float64) []DecisionPoint {
	candidates := Candidates(scored)
	if len(candidates) == 0 {
		return []DecisionPoint{}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].OrderIndex < candidates[j].OrderIndex
	})

	target := s.TargetCount(totalMeters)
	var accepted []scoring.ScoredStep
	for _, c := range candidates {
		if len(accepted) >= target {
			break
		}
		if s.tooClose(c, accepted) {
			continue
		}
		accepted = append(accepted, c)
	}

	picks := make([]pick, 0, len(accepted)*2)
	present := make(map[int]bool, len(accepted)*2)
	for _, a := range accepted {
		picks = append(picks, pick{step: a})
		present[a.OrderIndex] = true
	}

	for _, a := range accepted {
		prevIdx := a.OrderIndex - 1
		if prevIdx < 0 || prevIdx >= len(scored) || present[prevIdx] {
			continue
		}
		prev := scored[prevIdx]
		if prev.DistanceMeters > s.cfg.LeadInMinMeters || s.isPrepare(prev.PlainText) {
			picks = append(picks, pick{step: prev, leadIn: true})
			present[prevIdx] = true
		}
	}

	picks = s.trim(picks)

	sort.Slice(picks, func(i, j int) bool {
		return picks[i].step.OrderIndex < picks[j].step.OrderIndex
	})

	points := make([]DecisionPoint, len(picks))
	for i, p := range picks {
		points[i] = newDecisionPoint(i, p.step, p.leadIn, s.cfg.DecisionThreshold)
	}
	return points
}

func (s *Selector) tooClose(c scoring.ScoredStep, accepted []scoring.ScoredStep) bool {
	for _, a := range accepted {
		if geo.Distance(c.Start, a.Start) < s.cfg.SpacingMeters {
			return true
		}
	}
	return false
}

func (s *Selector) isPrepare(text string) bool {
	return s.patterns != nil && s.patterns.IsPrepare(text)
}

// trim drops lowest-scoring lead-ins, then lowest-scoring main points, until
// the hard maximum is met.
func (s *Selector) trim(picks []pick) []pick {
	if len(picks) <= s.cfg.MaxPoints {
		return picks
	}

	var leads, mains []pick
	for _, p := range picks {
		if p.leadIn {
			leads = append(leads, p)
		} else {
			mains = append(mains, p)
		}
	}
	byDropOrder := func(ps []pick) {
		sort.SliceStable(ps, func(i, j int) bool {
			if ps[i].step.Score != ps[j].step.Score {
				return ps[i].step.Score < ps[j].step.Score
			}
			return ps[i].step.OrderIndex > ps[j].step.OrderIndex
		})
	}
	byDropOrder(leads)
	byDropOrder(mains)

	excess := len(picks) - s.cfg.MaxPoints
	drop := min(excess, len(leads))
	leads = leads[drop:]
	excess -= drop
	if excess > 0 {
		mains = mains[excess:]
	}
	return append(mains, leads...)
}
