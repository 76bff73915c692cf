package selection

import (
	"rehearse/internal/geo"
	"rehearse/internal/scoring"
)

// DecisionPoint is one junction in the final rehearsal sequence.
//
// DecisionPoints are immutable once selected. Playback telemetry such as dwell
// time is kept by the playback package, keyed by Index.
type DecisionPoint struct {
	// Index is the 0-based position in the sequence.
	Index int `json:"index"`

	OrderIndex int `json:"orderIndex"`
	LegIndex   int `json:"legIndex"`
	StepIndex  int `json:"stepIndex"`

	Location geo.LatLng `json:"location"`
	Heading  float64    `json:"heading"`

	Instruction string `json:"instruction"`

	JunctionType  scoring.JunctionType `json:"junctionType"`
	JunctionLabel string               `json:"junctionLabel"`

	IsPrimary bool `json:"isPrimary"`
	IsLeadIn  bool `json:"isLeadIn"`

	// IsDecisionPoint flags a high-stakes junction (score at or above the
	// decision threshold). Selection itself only requires a positive score.
	IsDecisionPoint bool `json:"isDecisionPoint"`

	Commitment scoring.Commitment `json:"commitment"`
	Score      int                `json:"score"`
	Reasons    []scoring.Reason   `json:"reasons"`

	DistanceMeters float64 `json:"distanceMeters"`
	DistanceText   string  `json:"distanceText"`

	Maneuver string `json:"maneuver,omitempty"`
}

func newDecisionPoint(index int, s scoring.ScoredStep, leadIn bool, threshold int) DecisionPoint {
	reasons := make([]scoring.Reason, 0, len(s.Reasons)+1)
	reasons = append(reasons, s.Reasons...)
	if leadIn {
		reasons = append(reasons, scoring.ReasonLeadIn)
	}

	return DecisionPoint{
		Index:           index,
		OrderIndex:      s.OrderIndex,
		LegIndex:        s.LegIndex,
		StepIndex:       s.StepIndex,
		Location:        s.Start,
		Heading:         s.Heading,
		Instruction:     s.PlainText,
		JunctionType:    s.Type,
		JunctionLabel:   s.Type.Label(),
		IsPrimary:       s.IsPrimary,
		IsLeadIn:        leadIn,
		IsDecisionPoint: s.Score >= threshold,
		Commitment:      s.Commitment,
		Score:           s.Score,
		Reasons:         reasons,
		DistanceMeters:  s.DistanceMeters,
		DistanceText:    s.DistanceText,
		Maneuver:        s.Maneuver,
	}
}
