package scoring

import (
	"rehearse/internal/route"
)

// Scorer applies the rehearsal heuristics to route steps. A Scorer holds no
// per-run state and may be shared between analyses.
type Scorer struct {
	patterns *Patterns
	rules    Rules
}

// NewScorer creates a [Scorer] from a compiled pattern table and rule set.
func NewScorer(patterns *Patterns, rules Rules) *Scorer {
	return &Scorer{patterns: patterns, rules: rules}
}

// NewDefaultScorer creates a [Scorer] with the English table and default rules.
func NewDefaultScorer() *Scorer {
	p, err := DefaultPatterns().Compile()
	if err != nil {
		panic("scoring: default patterns do not compile: " + err.Error())
	}
	return NewScorer(p, DefaultRules())
}

// ScoreAll scores every step in context of its successor. The result has the
// same length and order as steps.
func (s *Scorer) ScoreAll(steps []route.Step) []ScoredStep {
	scored := make([]ScoredStep, len(steps))
	for i := range steps {
		var next *route.Step
		if i+1 < len(steps) {
			next = &steps[i+1]
		}
		scored[i] = s.Score(steps[i], next)
	}
	return scored
}

// Score rates a single step. next is the following step, or nil for the last one.
//
// Rules in precedence order:
//  1. A plain continuation with no lane, exit or merge cue scores 0 and is excluded.
//  2. Lane commitment.
//  3. Roundabout, refined by exit ordinal or small size.
//  4. Short decision window before a major maneuver.
//  5. Signage overload.
//  6. Destination pressure.
//  7. A zero score with no junction cue at all is excluded.
func (s *Scorer) Score(step route.Step, next *route.Step) ScoredStep {
	p := s.patterns
	w := s.rules.Weights
	th := s.rules.Thresholds
	text := step.PlainText

	typ, roundabout := s.classify(step)
	out := ScoredStep{
		Step:      step,
		Type:      typ,
		IsPrimary: roundabout,
		Reasons:   []Reason{},
	}

	lane := matchAny(p.laneCommitment, text)

	if matchAny(p.continuation, text) && !lane && !matchAny(p.cruiseBlockers, text) {
		out.Exclude = true
		out.Commitment = CommitmentLow
		return out
	}

	score := 0
	add := func(points int, r Reason) {
		score += points
		out.Reasons = append(out.Reasons, r)
	}

	if lane {
		add(w.LaneCommitment, ReasonLaneCommitment)
	}

	if roundabout {
		add(w.Roundabout, ReasonRoundabout)
		if matchAny(p.exitOrdinal, text) {
			add(w.RoundaboutExit, ReasonRoundaboutExit)
		} else if step.DistanceMeters > 0 && step.DistanceMeters < th.SmallRoundaboutMeters {
			add(w.SmallRoundabout, ReasonSmallRoundabout)
		}
	}

	if next != nil && next.DistanceMeters > 0 && matchAny(p.prepare, text) && s.isMajor(*next) {
		switch {
		case next.DistanceMeters <= th.TightWindowMeters:
			add(w.TightWindow, ReasonShortWindow)
		case next.DistanceMeters <= th.NearWindowMeters:
			add(w.NearWindow, ReasonShortWindow)
		}
	}

	if matchAny(p.signage, step.Instruction, text) {
		add(w.Signage, ReasonSignage)
	}

	if matchAny(p.pressure, text) {
		add(w.Pressure, ReasonPressure)
	}

	if score < 0 {
		score = 0
	}
	out.Score = score

	if score == 0 && !roundabout && !lane {
		if _, ok := p.keywordType(text); !ok {
			out.Exclude = true
		}
	}

	out.Commitment = DeriveCommitment(out.Reasons)
	return out
}

// classify derives the junction type independently of the score. It also
// reports whether the step is a roundabout.
func (s *Scorer) classify(step route.Step) (JunctionType, bool) {
	if s.isRoundabout(step) {
		return JunctionRoundabout, true
	}
	if t, ok := s.rules.ManeuverTypes[step.Maneuver]; ok {
		return t, false
	}
	if t, ok := s.patterns.keywordType(step.PlainText); ok {
		return t, false
	}
	return JunctionComplex, false
}

func (s *Scorer) isRoundabout(step route.Step) bool {
	if s.rules.ManeuverTypes[step.Maneuver] == JunctionRoundabout {
		return true
	}
	return matchAny(s.patterns.roundabout, step.PlainText)
}

// isMajor reports whether a step is a maneuver worth a short-window bonus on
// the step that prepares for it.
func (s *Scorer) isMajor(step route.Step) bool {
	if _, ok := s.rules.ManeuverTypes[step.Maneuver]; ok {
		return true
	}
	for _, m := range s.rules.TurnManeuvers {
		if step.Maneuver == m {
			return true
		}
	}
	text := step.PlainText
	if matchAny(s.patterns.roundabout, text) || matchAny(s.patterns.laneCommitment, text) {
		return true
	}
	_, ok := s.patterns.keywordType(text)
	return ok
}

// IsPrepare reports whether text reads as preparation for an upcoming maneuver.
func (s *Scorer) IsPrepare(text string) bool {
	return matchAny(s.patterns.prepare, text)
}
