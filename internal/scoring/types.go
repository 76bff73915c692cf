// Package scoring rates each route step for rehearsal value.
//
// A [Scorer] applies heuristic rules to a step and its successor, producing a
// score, reason tags, an exclusion flag and a junction type. The natural-language
// side of the rules lives in a [PatternSet], so an instruction locale is a data
// table rather than code; the numeric side lives in [Rules].
//
// Key types:
//   - [Scorer] scores steps; create with [NewScorer]
//   - [ScoredStep] is a step with its score and derived classification
//   - [JunctionType], [Reason] and [Commitment] are the classification vocabulary
package scoring

import "rehearse/internal/route"

// JunctionType classifies the geometry of a junction.
type JunctionType string

const (
	JunctionRoundabout JunctionType = "roundabout"
	JunctionMerge      JunctionType = "merge"
	JunctionFork       JunctionType = "fork"
	JunctionSharpTurn  JunctionType = "sharp-turn"
	JunctionUTurn      JunctionType = "uturn"
	JunctionComplex    JunctionType = "complex"
)

var junctionLabels = map[JunctionType]string{
	JunctionRoundabout: "Roundabout",
	JunctionMerge:      "Merge",
	JunctionFork:       "Fork",
	JunctionSharpTurn:  "Sharp turn",
	JunctionUTurn:      "U-turn",
	JunctionComplex:    "Complex junction",
}

// Label returns the display label for the junction type.
func (t JunctionType) Label() string {
	if l, ok := junctionLabels[t]; ok {
		return l
	}
	return junctionLabels[JunctionComplex]
}

// IsValid reports whether t is one of the known junction types.
func (t JunctionType) IsValid() bool {
	_, ok := junctionLabels[t]
	return ok
}

// Reason is a tag recording why a step scored.
type Reason string

const (
	ReasonLaneCommitment  Reason = "lane-commitment"
	ReasonRoundabout      Reason = "roundabout"
	ReasonRoundaboutExit  Reason = "roundabout-exit"
	ReasonSmallRoundabout Reason = "small-roundabout"
	ReasonShortWindow     Reason = "short-window"
	ReasonSignage         Reason = "signage"
	ReasonPressure        Reason = "pressure"

	// ReasonLeadIn marks a step kept only because it precedes a selected junction.
	ReasonLeadIn Reason = "lead-in"
)

// Commitment is the qualitative severity of a junction.
type Commitment string

const (
	CommitmentLow    Commitment = "low"
	CommitmentMedium Commitment = "medium"
	CommitmentHigh   Commitment = "high"
)

// Weight is the multiplier applied to dwell time when ranking the most
// lingered junctions.
func (c Commitment) Weight() float64 {
	switch c {
	case CommitmentHigh:
		return 2
	case CommitmentMedium:
		return 1.5
	default:
		return 1
	}
}

// DeriveCommitment maps a reason set to a commitment level.
//
//   - high: lane-commitment with short-window, or roundabout-exit with lane-commitment
//   - medium: any one of lane-commitment, short-window, roundabout-exit
//   - low: otherwise
func DeriveCommitment(reasons []Reason) Commitment {
	has := func(r Reason) bool {
		for _, x := range reasons {
			if x == r {
				return true
			}
		}
		return false
	}

	lane := has(ReasonLaneCommitment)
	window := has(ReasonShortWindow)
	exit := has(ReasonRoundaboutExit)

	switch {
	case lane && window, exit && lane:
		return CommitmentHigh
	case lane || window || exit:
		return CommitmentMedium
	default:
		return CommitmentLow
	}
}

// ScoredStep is a flattened step with its rehearsal score. It is computed once
// per analysis run and not modified afterwards.
type ScoredStep struct {
	route.Step

	Score   int      `json:"score"`
	Reasons []Reason `json:"reasons"`

	// Exclude removes the step from candidacy regardless of score.
	Exclude bool `json:"exclude"`

	Type JunctionType `json:"type"`

	// IsPrimary is set for roundabout steps. It is carried for display only.
	IsPrimary bool `json:"isPrimary"`

	Commitment Commitment `json:"commitment"`
}

// HasReason reports whether r is among the step's reasons.
func (s *ScoredStep) HasReason(r Reason) bool {
	for _, x := range s.Reasons {
		if x == r {
			return true
		}
	}
	return false
}
