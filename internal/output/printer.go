// Package output renders analysis results, playback frames and session
// history for the terminal using lipgloss.
//
// A [Printer] owns a lipgloss renderer bound to its writer, so color is only
// emitted when the writer is a terminal. Tests use [NewPrinterWithWriter] with
// a buffer and get plain text.
package output

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"rehearse/internal/analysis"
	"rehearse/internal/history"
	"rehearse/internal/playback"
	"rehearse/internal/scoring"
	"rehearse/internal/selection"
)

const defaultTruncate = 60

// Printer writes formatted output.
type Printer struct {
	out      io.Writer
	st       styles
	truncate int
	now      func() time.Time
}

// NewPrinter creates a Printer writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter creates a Printer writing to w.
func NewPrinterWithWriter(w io.Writer) *Printer {
	return &Printer{
		out:      w,
		st:       newStyles(lipgloss.NewRenderer(w)),
		truncate: defaultTruncate,
		now:      time.Now,
	}
}

// SetTruncateLength sets the maximum instruction length in tables. Values
// below 10 are ignored.
func (p *Printer) SetTruncateLength(n int) {
	if n >= 10 {
		p.truncate = n
	}
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) println(s string) {
	fmt.Fprintln(p.out, s)
}

// PrintReport prints an analysis summary followed by the decision point table.
func (p *Printer) PrintReport(r analysis.Report) {
	title := "Route"
	if r.Summary != "" {
		title = "Route via " + r.Summary
	}
	p.println(p.st.title.Render(title))
	p.printf("%s %s   %s %d   %s %d   %s %d\n",
		p.st.label.Render("Distance:"), FormatDistance(r.TotalDistanceMeters),
		p.st.label.Render("Steps:"), r.StepCount,
		p.st.label.Render("Candidates:"), r.CandidateCount,
		p.st.label.Render("Target:"), r.TargetCount)
	p.println("")

	if r.Outcome != analysis.OutcomeOK {
		p.println(p.st.warning.Render("! " + r.Message()))
		return
	}
	p.PrintDecisionPoints(r.Points)
}

// PrintDecisionPoints prints one table row per point.
func (p *Printer) PrintDecisionPoints(points []selection.DecisionPoint) {
	rows := make([][]string, 0, len(points))
	for _, dp := range points {
		marker := " "
		switch {
		case dp.IsDecisionPoint:
			marker = "★"
		case dp.IsLeadIn:
			marker = "↳"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", dp.Index+1),
			marker,
			dp.JunctionLabel,
			fmt.Sprintf("%d", dp.Score),
			string(dp.Commitment),
			FormatDistance(dp.DistanceMeters),
			Truncate(dp.Instruction, p.truncate),
		})
	}

	p.println(p.table([]string{"#", "", "Junction", "Score", "Commit", "Distance", "Instruction"}, rows, 4))
	p.println(p.st.muted.Render("★ decision point   ↳ lead-in"))
}

// PrintDiagnostics prints the verbose per-point dump and, when stress is
// non-empty, the most lingered summary.
func (p *Printer) PrintDiagnostics(points []selection.DecisionPoint, dwell []playback.DwellRecord, stress []playback.StressEntry) {
	byIndex := make(map[int]playback.DwellRecord, len(dwell))
	for _, d := range dwell {
		byIndex[d.Index] = d
	}

	p.println(p.st.title.Render("Diagnostics"))
	for _, dp := range points {
		d := byIndex[dp.Index]
		reasons := make([]string, len(dp.Reasons))
		for i, r := range dp.Reasons {
			reasons[i] = string(r)
		}
		p.printf("[%02d] leg %d step %d | %s | score %d | %s | dwell %s | %s\n     %s\n",
			dp.Index, dp.LegIndex, dp.StepIndex,
			FormatDistance(dp.DistanceMeters),
			dp.Score,
			p.commitment(dp.Commitment),
			FormatDwell(d.Seconds),
			p.st.muted.Render("["+strings.Join(reasons, ", ")+"]"),
			Truncate(dp.Instruction, p.truncate))
	}
	if len(stress) > 0 {
		p.println("")
		p.PrintStressSummary(stress)
	}
}

// PrintSnapshot prints one playback frame.
func (p *Printer) PrintSnapshot(s playback.Snapshot) {
	if s.Current == nil {
		p.println(p.st.muted.Render("(nothing loaded)"))
		return
	}
	dp := s.Current

	header := fmt.Sprintf("%s  %s %d/%d  %s",
		ProgressBar(s.Progress, 20, p.st.barFill, p.st.barEmpty),
		p.st.label.Render("Junction"), s.Index+1, s.Total,
		p.st.muted.Render(fmt.Sprintf("%.0f%%", s.Progress)))

	// Steps with missing coordinates decode to 0,0.
	location := "no location"
	if !dp.Location.IsZero() {
		location = fmt.Sprintf("%.5f, %.5f", dp.Location.Lat, dp.Location.Lng)
	}

	kind := dp.JunctionLabel
	if dp.IsDecisionPoint {
		kind += " · decision point"
	}
	if dp.IsLeadIn {
		kind += " · lead-in"
	}

	body := strings.Join([]string{
		header,
		p.st.title.Render(dp.Instruction),
		fmt.Sprintf("%s   score %d   %s", kind, dp.Score, p.commitment(dp.Commitment)),
		p.st.muted.Render(fmt.Sprintf("%s  heading %.0f° %s  speed %s  %s",
			location, dp.Heading, Compass(dp.Heading), FormatSpeed(s.Speed), s.State)),
	}, "\n")
	p.println(p.st.frame.Render(body))
}

// PrintStressSummary prints the most lingered junctions of a playback.
func (p *Printer) PrintStressSummary(entries []playback.StressEntry) {
	p.println(p.st.title.Render("Most lingered"))
	if len(entries) == 0 {
		p.println(p.st.muted.Render("  no dwell recorded"))
		return
	}
	for i, e := range entries {
		p.printf("  %d. %s  %s × %.1f = %s  %s\n",
			i+1,
			Truncate(e.Point.Instruction, p.truncate),
			FormatDwell(e.DwellSeconds), e.Weight,
			p.st.label.Render(fmt.Sprintf("%.1f", e.WeightedDwell)),
			p.commitment(e.Point.Commitment))
	}
}

// PrintSessions prints a session listing.
func (p *Printer) PrintSessions(sessions []history.Session) {
	if len(sessions) == 0 {
		p.println(p.st.muted.Render("No sessions recorded yet."))
		return
	}
	now := p.now()
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		status := p.st.success.Render("✓")
		if !s.Completed {
			status = p.st.warning.Render("…")
		}
		rows = append(rows, []string{
			ShortID(s.ID),
			status,
			s.RouteLabel,
			fmt.Sprintf("%d", s.PointCount),
			FormatDistance(s.TotalMeters),
			FormatDwell(s.TotalDwellSeconds),
			humanize.RelTime(s.StartedAt, now, "ago", "from now"),
		})
	}
	p.println(p.table([]string{"ID", "", "Route", "Points", "Distance", "Dwell", "Started"}, rows, -1))
}

// PrintSession prints one session with its points.
func (p *Printer) PrintSession(s *history.Session) {
	status := p.st.success.Render("completed")
	if !s.Completed {
		status = p.st.warning.Render("stopped early")
	}
	p.println(p.st.title.Render("Session " + s.ID))
	p.printf("%s %s   %s %s   %s\n",
		p.st.label.Render("Route:"), s.RouteLabel,
		p.st.label.Render("Started:"), humanize.RelTime(s.StartedAt, p.now(), "ago", "from now"),
		status)
	p.printf("%s %s over %s\n\n",
		p.st.label.Render("Dwell:"), FormatDwell(s.TotalDwellSeconds), s.EndedAt.Sub(s.StartedAt).Round(time.Second))

	rows := make([][]string, 0, len(s.Points))
	for _, pt := range s.Points {
		rows = append(rows, []string{
			fmt.Sprintf("%d", pt.Index+1),
			pt.JunctionType.Label(),
			string(pt.Commitment),
			FormatDwell(pt.DwellSeconds),
			fmt.Sprintf("%.1f", pt.WeightedDwell),
			Truncate(pt.Instruction, p.truncate),
		})
	}
	p.println(p.table([]string{"#", "Junction", "Commit", "Dwell", "Weighted", "Instruction"}, rows, 5))
}

// PrintLingered prints junctions ranked across all sessions.
func (p *Printer) PrintLingered(js []history.LingeredJunction) {
	p.println(p.st.title.Render("Most lingered junctions"))
	if len(js) == 0 {
		p.println(p.st.muted.Render("  no dwell recorded"))
		return
	}
	for i, j := range js {
		p.printf("  %d. %s  %s\n     %s in %s   weighted %.1f   %s\n",
			i+1,
			Truncate(j.Instruction, p.truncate),
			p.st.muted.Render(j.JunctionType.Label()),
			FormatDwell(j.DwellSeconds),
			pluralize(j.Sessions, "session"),
			j.WeightedDwell,
			p.commitment(j.MaxCommitment))
	}
}

// PrintSessionSaved confirms a stored session.
func (p *Printer) PrintSessionSaved(id string) {
	p.println(p.st.success.Render("✓ Session saved ") + p.st.muted.Render(ShortID(id)))
}

// PrintSessionDeleted confirms a removed session.
func (p *Printer) PrintSessionDeleted(id string) {
	p.println(p.st.success.Render("✓ Session deleted ") + p.st.muted.Render(ShortID(id)))
}

// PrintError prints an error line.
func (p *Printer) PrintError(err error) {
	p.println(p.st.failure.Render("✗ " + err.Error()))
}

// PrintWarning prints a warning line.
func (p *Printer) PrintWarning(msg string) {
	p.println(p.st.warning.Render("! " + msg))
}

func (p *Printer) commitment(c scoring.Commitment) string {
	switch c {
	case scoring.CommitmentHigh:
		return p.st.high.Render(string(c))
	case scoring.CommitmentMedium:
		return p.st.medium.Render(string(c))
	default:
		return p.st.low.Render(string(c))
	}
}

// table renders rows with the given headers. wide is the column allowed to
// take the remaining space, or -1.
func (p *Printer) table(headers []string, rows [][]string, wide int) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.st.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.st.header
			}
			if col == wide {
				return p.st.cell.Align(lipgloss.Left)
			}
			return p.st.cell
		})
	return t.String()
}

// FormatDistance renders meters as "850 m" or "12.4 km".
func FormatDistance(m float64) string {
	if m < 1000 {
		return fmt.Sprintf("%.0f m", math.Max(m, 0))
	}
	return humanize.SIWithDigits(m, 1, "m")
}

// FormatDwell renders seconds with one decimal.
func FormatDwell(seconds float64) string {
	return fmt.Sprintf("%.1fs", seconds)
}

// FormatSpeed renders a playback multiplier.
func FormatSpeed(m float64) string {
	if m == playback.SpeedSkip {
		return "skip"
	}
	return humanize.Ftoa(m) + "×"
}

// Truncate shortens s to at most n runes, ending with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// ShortID returns the first eight characters of an ID.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// ProgressBar renders a bar of width cells filled to percent.
func ProgressBar(percent float64, width int, fill, empty lipgloss.Style) string {
	if width <= 0 {
		return ""
	}
	n := int(math.Round(math.Min(math.Max(percent, 0), 100) / 100 * float64(width)))
	return fill.Render(strings.Repeat("█", n)) + empty.Render(strings.Repeat("░", width-n))
}

var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Compass returns the eight-point compass direction for a heading in degrees.
func Compass(deg float64) string {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return compassPoints[int(math.Round(d/45))%8]
}

func pluralize(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return humanize.Comma(int64(n)) + " " + word + "s"
}
