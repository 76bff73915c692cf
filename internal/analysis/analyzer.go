// Package analysis runs the full pipeline from a routing result to the list of
// decision points: flatten, score, select.
package analysis

import (
	"github.com/rs/zerolog"

	"rehearse/internal/route"
	"rehearse/internal/scoring"
	"rehearse/internal/selection"
)

// Outcome summarizes how an analysis ended.
type Outcome string

const (
	// OutcomeOK means at least one decision point was selected.
	OutcomeOK Outcome = "ok"
	// OutcomeNoRoute means the input carried no usable route.
	OutcomeNoRoute Outcome = "no-route"
	// OutcomeNoCandidates means the route had no step worth rehearsing.
	OutcomeNoCandidates Outcome = "no-candidates"
)

// Report is the result of one analysis run.
type Report struct {
	Outcome             Outcome                   `json:"outcome"`
	Summary             string                    `json:"summary,omitempty"`
	Points              []selection.DecisionPoint `json:"points"`
	TargetCount         int                       `json:"targetCount"`
	TotalDistanceMeters float64                   `json:"totalDistanceMeters"`
	StepCount           int                       `json:"stepCount"`
	CandidateCount      int                       `json:"candidateCount"`
}

// Message returns a user-facing description of a non-ok outcome.
func (r *Report) Message() string {
	switch r.Outcome {
	case OutcomeNoRoute:
		return "Route data was incomplete or unavailable"
	case OutcomeNoCandidates:
		return "No junctions on this route need rehearsal"
	default:
		return ""
	}
}

// Analyzer wires a scorer and a selector together.
type Analyzer struct {
	scorer   *scoring.Scorer
	selector *selection.Selector
	log      zerolog.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(scorer *scoring.Scorer, selector *selection.Selector, log zerolog.Logger) *Analyzer {
	return &Analyzer{scorer: scorer, selector: selector, log: log}
}

// NewDefaultAnalyzer uses the English pattern table and default limits, and
// discards logs.
func NewDefaultAnalyzer() *Analyzer {
	scorer := scoring.NewDefaultScorer()
	return NewAnalyzer(scorer, selection.NewSelector(selection.DefaultConfig(), scorer), zerolog.Nop())
}

// Analyze selects decision points from the primary route of result. A nil
// result or one without routes yields OutcomeNoRoute.
func (a *Analyzer) Analyze(result *route.Result) Report {
	if result == nil {
		return a.empty(OutcomeNoRoute)
	}
	r := result.Primary()
	if r == nil {
		return a.empty(OutcomeNoRoute)
	}
	return a.AnalyzeRoute(r)
}

// AnalyzeRoute selects decision points from a single route.
func (a *Analyzer) AnalyzeRoute(r *route.Route) Report {
	if r == nil {
		return a.empty(OutcomeNoRoute)
	}

	steps := route.Flatten(r)
	scored := a.scorer.ScoreAll(steps)
	total := r.TotalDistance()
	points := a.selector.Select(scored, total)

	report := Report{
		Outcome:             OutcomeOK,
		Summary:             r.Summary,
		Points:              points,
		TargetCount:         a.selector.TargetCount(total),
		TotalDistanceMeters: total,
		StepCount:           len(steps),
		CandidateCount:      len(selection.Candidates(scored)),
	}
	if len(points) == 0 {
		report.Outcome = OutcomeNoCandidates
	}

	a.log.Debug().
		Str("summary", r.Summary).
		Int("steps", report.StepCount).
		Int("candidates", report.CandidateCount).
		Int("target", report.TargetCount).
		Int("selected", len(points)).
		Float64("meters", total).
		Str("outcome", string(report.Outcome)).
		Msg("route analyzed")

	return report
}

func (a *Analyzer) empty(o Outcome) Report {
	a.log.Debug().Str("outcome", string(o)).Msg("route analyzed")
	return Report{Outcome: o, Points: []selection.DecisionPoint{}}
}
