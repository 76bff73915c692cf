package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"rehearse/internal/analysis"
	"rehearse/internal/geo"
	"rehearse/internal/history"
	"rehearse/internal/playback"
	"rehearse/internal/scoring"
	"rehearse/internal/selection"
)

func newTestPrinter() (*Printer, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return p, buf
}

func samplePoints() []selection.DecisionPoint {
	return []selection.DecisionPoint{
		{
			Index:          0,
			LegIndex:       0,
			StepIndex:      1,
			Instruction:    "Head north on Queens Rd",
			JunctionType:   scoring.JunctionComplex,
			JunctionLabel:  "Complex junction",
			IsLeadIn:       true,
			Commitment:     scoring.CommitmentLow,
			Reasons:        []scoring.Reason{scoring.ReasonLeadIn},
			DistanceMeters: 600,
		},
		{
			Index:           1,
			LegIndex:        0,
			StepIndex:       2,
			Location:        geo.LatLng{Lat: 51.455, Lng: -0.97},
			Heading:         92,
			Instruction:     "Keep in the left lane to take the ramp to M4",
			JunctionType:    scoring.JunctionMerge,
			JunctionLabel:   "Merge",
			IsDecisionPoint: true,
			Commitment:      scoring.CommitmentHigh,
			Score:           14,
			Reasons:         []scoring.Reason{scoring.ReasonLaneCommitment, scoring.ReasonShortWindow},
			DistanceMeters:  1500,
		},
	}
}

func TestPrinter_PrintReport(t *testing.T) {
	p, buf := newTestPrinter()

	p.PrintReport(analysis.Report{
		Outcome:             analysis.OutcomeOK,
		Summary:             "M4",
		Points:              samplePoints(),
		TargetCount:         8,
		TotalDistanceMeters: 24000,
		StepCount:           6,
		CandidateCount:      4,
	})

	out := buf.String()
	assert.Contains(t, out, "Route via M4")
	assert.Contains(t, out, "24 km")
	assert.Contains(t, out, "Target:")
	assert.Contains(t, out, "Merge")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "★")
	assert.Contains(t, out, "↳")
	assert.Contains(t, out, "Head north on Queens Rd")
}

func TestPrinter_PrintReport_NoCandidates(t *testing.T) {
	p, buf := newTestPrinter()

	p.PrintReport(analysis.Report{Outcome: analysis.OutcomeNoCandidates})

	out := buf.String()
	assert.Contains(t, out, "No junctions on this route need rehearsal")
	assert.NotContains(t, out, "Instruction")
}

func TestPrinter_TruncatesInstructions(t *testing.T) {
	p, buf := newTestPrinter()
	p.SetTruncateLength(20)

	p.PrintDecisionPoints(samplePoints())

	assert.Contains(t, buf.String(), "Keep in the left ...")
	assert.NotContains(t, buf.String(), "ramp to M4")
}

func TestPrinter_PrintDiagnostics(t *testing.T) {
	p, buf := newTestPrinter()
	points := samplePoints()
	dwell := []playback.DwellRecord{{Index: 0, Seconds: 2}, {Index: 1, Seconds: 7.25}}
	stress := []playback.StressEntry{{Point: points[1], DwellSeconds: 7.25, Weight: 2, WeightedDwell: 14.5}}

	p.PrintDiagnostics(points, dwell, stress)

	out := buf.String()
	assert.Contains(t, out, "[01] leg 0 step 2")
	assert.Contains(t, out, "1.5 km")
	assert.Contains(t, out, "score 14")
	assert.Contains(t, out, "dwell 7.2s")
	assert.Contains(t, out, "lane-commitment, short-window")
	assert.Contains(t, out, "Most lingered")
	assert.Contains(t, out, "14.5")
}

func TestPrinter_PrintDiagnostics_NoStress(t *testing.T) {
	p, buf := newTestPrinter()

	p.PrintDiagnostics(samplePoints(), nil, nil)

	assert.Contains(t, buf.String(), "dwell 0.0s")
	assert.NotContains(t, buf.String(), "Most lingered")
}

func TestPrinter_PrintSnapshot(t *testing.T) {
	p, buf := newTestPrinter()
	points := samplePoints()

	p.PrintSnapshot(playback.Snapshot{
		State:    playback.StatePlaying,
		Index:    1,
		Total:    2,
		Current:  &points[1],
		Playing:  true,
		Speed:    2,
		Progress: 100,
		IsLast:   true,
	})

	out := buf.String()
	assert.Contains(t, out, "Junction 2/2")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "Merge · decision point")
	assert.Contains(t, out, "heading 92° E")
	assert.Contains(t, out, "speed 2×")
	assert.Contains(t, out, "playing")
	assert.Contains(t, out, strings.Repeat("█", 20))
}

func TestPrinter_PrintSnapshot_MissingLocation(t *testing.T) {
	p, buf := newTestPrinter()
	points := samplePoints()
	points[0].Location = geo.LatLng{}

	p.PrintSnapshot(playback.Snapshot{State: playback.StateShowing, Total: 2, Current: &points[0], Speed: 1, Progress: 50})

	assert.Contains(t, buf.String(), "no location")
	assert.NotContains(t, buf.String(), "0.00000, 0.00000")
}

func TestPrinter_PrintSnapshot_Empty(t *testing.T) {
	p, buf := newTestPrinter()

	p.PrintSnapshot(playback.Snapshot{})

	assert.Contains(t, buf.String(), "nothing loaded")
}

func TestPrinter_PrintStressSummary_Empty(t *testing.T) {
	p, buf := newTestPrinter()

	p.PrintStressSummary(nil)

	assert.Contains(t, buf.String(), "no dwell recorded")
}

func TestPrinter_PrintSessions(t *testing.T) {
	p, buf := newTestPrinter()

	p.PrintSessions([]history.Session{
		{
			ID:                "3f2a9c1e-0000-4000-8000-000000000000",
			RouteLabel:        "M4",
			PointCount:        8,
			TotalMeters:       24000,
			TotalDwellSeconds: 61,
			Completed:         true,
			StartedAt:         time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		},
	})

	out := buf.String()
	assert.Contains(t, out, "3f2a9c1e")
	assert.NotContains(t, out, "3f2a9c1e-0000")
	assert.Contains(t, out, "M4")
	assert.Contains(t, out, "61.0s")
	assert.Contains(t, out, "3 hours ago")
}

func TestPrinter_PrintSessions_Empty(t *testing.T) {
	p, buf := newTestPrinter()

	p.PrintSessions(nil)

	assert.Contains(t, buf.String(), "No sessions recorded yet.")
}

func TestPrinter_PrintSession(t *testing.T) {
	p, buf := newTestPrinter()
	start := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)

	p.PrintSession(&history.Session{
		ID:         "abc",
		RouteLabel: "A40",
		StartedAt:  start,
		EndedAt:    start.Add(90 * time.Second),
		Points: []history.SessionPoint{
			{Index: 0, JunctionType: scoring.JunctionRoundabout, Commitment: scoring.CommitmentMedium,
				DwellSeconds: 4, WeightedDwell: 6, Instruction: "At the roundabout, take the 2nd exit"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Session abc")
	assert.Contains(t, out, "stopped early")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "Roundabout")
	assert.Contains(t, out, "6.0")
}

func TestPrinter_PrintLingered(t *testing.T) {
	p, buf := newTestPrinter()

	p.PrintLingered([]history.LingeredJunction{
		{Instruction: "Merge onto M4", JunctionType: scoring.JunctionMerge, Sessions: 3, DwellSeconds: 20, WeightedDwell: 40, MaxCommitment: scoring.CommitmentHigh},
		{Instruction: "Keep left", JunctionType: scoring.JunctionFork, Sessions: 1, DwellSeconds: 5, WeightedDwell: 5, MaxCommitment: scoring.CommitmentLow},
	})

	out := buf.String()
	assert.Contains(t, out, "1. Merge onto M4")
	assert.Contains(t, out, "3 sessions")
	assert.Contains(t, out, "1 session ")
	assert.Contains(t, out, "weighted 40.0")
}

func TestPrinter_Messages(t *testing.T) {
	p, buf := newTestPrinter()

	p.PrintSessionSaved("0123456789abcdef")
	p.PrintSessionDeleted("fedcba9876543210")
	p.PrintError(errors.New("boom"))
	p.PrintWarning("careful")

	out := buf.String()
	assert.Contains(t, out, "Session saved 01234567")
	assert.Contains(t, out, "Session deleted fedcba98")
	assert.Contains(t, out, "✗ boom")
	assert.Contains(t, out, "! careful")
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0 m"},
		{-5, "0 m"},
		{850, "850 m"},
		{1000, "1 km"},
		{12400, "12.4 km"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDistance(tt.in))
		})
	}
}

func TestFormatSpeed(t *testing.T) {
	assert.Equal(t, "skip", FormatSpeed(0))
	assert.Equal(t, "0.5×", FormatSpeed(0.5))
	assert.Equal(t, "2×", FormatSpeed(2))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ÄÖÜ...", Truncate("ÄÖÜßäöüß", 6))
}

func TestCompass(t *testing.T) {
	tests := map[float64]string{0: "N", 44: "NE", 90: "E", 180: "S", 271: "W", 337.6: "N", -45: "NW", 720: "N"}
	for deg, want := range tests {
		assert.Equal(t, want, Compass(deg), "heading %v", deg)
	}
}

func TestProgressBar(t *testing.T) {
	plain := lipgloss.NewStyle()

	assert.Equal(t, "█████░░░░░", ProgressBar(50, 10, plain, plain))
	assert.Equal(t, "░░░░░░░░░░", ProgressBar(-10, 10, plain, plain))
	assert.Equal(t, "██████████", ProgressBar(150, 10, plain, plain))
	assert.Empty(t, ProgressBar(50, 0, plain, plain))
}
