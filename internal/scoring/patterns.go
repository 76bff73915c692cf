package scoring

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DefaultPatternsPath is where a pattern table is auto-discovered relative to
// the working directory.
const DefaultPatternsPath = "patterns.yaml"

// PatternSet is a language table of regular expressions matched against
// instruction text. All patterns are matched case-insensitively.
type PatternSet struct {
	// Locale is informational, e.g. "en-GB".
	Locale string `yaml:"locale"`

	// Continuation identifies plain "keep driving" instructions.
	Continuation []string `yaml:"continuation"`

	// CruiseBlockers are cues that stop a continuation from being treated as
	// a trivial motorway stretch, in addition to LaneCommitment.
	CruiseBlockers []string `yaml:"cruise_blockers"`

	LaneCommitment []string `yaml:"lane_commitment"`
	Roundabout     []string `yaml:"roundabout"`
	ExitOrdinal    []string `yaml:"exit_ordinal"`

	// Prepare identifies instructions that set up a following maneuver.
	Prepare []string `yaml:"prepare"`

	Signage  []string `yaml:"signage"`
	Pressure []string `yaml:"pressure"`

	// Keywords map phrases to junction types and are scanned in order.
	Keywords []KeywordRule `yaml:"keywords"`
}

// KeywordRule maps an instruction phrase to a junction type.
type KeywordRule struct {
	Pattern string       `yaml:"pattern"`
	Type    JunctionType `yaml:"type"`
}

// DefaultPatterns returns the English instruction table.
func DefaultPatterns() *PatternSet {
	return &PatternSet{
		Locale: "en",
		Continuation: []string{
			`^continue\s+(on|onto|along)\b`,
			`^continue\s+for\b`,
			`^continue\s+straight\b`,
		},
		CruiseBlockers: []string{
			`\bexit\b`,
			`\bmerge\b`,
			`\blanes?\b`,
		},
		LaneCommitment: []string{
			`\b(keep|stay)\s+(in\s+)?(the\s+)?(left|right)(-hand)?\s+lanes?\b`,
			`\bmerge\b`,
			`\bslip\s*road\b`,
			`\btake\s+the\b.*\bramp\b`,
			`\bexit\s+\d+[a-z]?\b`,
			`\b(take|use)\s+(the\s+)?exit\b`,
			`^exit\s+(onto|toward|towards)\b`,
			`\bat\s+(the\s+)?exit\b`,
		},
		Roundabout: []string{
			`\broundabout\b`,
			`\btraffic\s+circle\b`,
			`\bgyratory\b`,
			`\brotary\b`,
			`\btake\s+the\s+(\d+(st|nd|rd|th)|first|second|third|fourth|fifth|sixth)\s+exit\b`,
		},
		ExitOrdinal: []string{
			`\b\d+(st|nd|rd|th)\s+exit\b`,
			`\b(first|second|third|fourth|fifth|sixth)\s+exit\b`,
		},
		Prepare: []string{
			`\bprepare\b`,
			`\bkeep\b`,
			`\bmerge\b`,
			`\bexit\b`,
			`\bramp\b`,
		},
		Signage: []string{
			`\bsigns?\b`,
			`\btowards?\b`,
			`\b[amb]\d{1,4}\b`,
			`\bdestination\b`,
			`\bfollow\b`,
		},
		Pressure: []string{
			`\bcity\s+cent(re|er)\b`,
			`\bairport\b`,
			`\bhospital\b`,
		},
		Keywords: []KeywordRule{
			{Pattern: `\bmerge\s+onto\b`, Type: JunctionMerge},
			{Pattern: `\btake\s+the\s+ramp\b`, Type: JunctionMerge},
			{Pattern: `\bkeep\s+left\b`, Type: JunctionFork},
			{Pattern: `\bkeep\s+right\b`, Type: JunctionFork},
			{Pattern: `\bfork\b`, Type: JunctionFork},
			{Pattern: `\bsharp\s+left\b`, Type: JunctionSharpTurn},
			{Pattern: `\bsharp\s+right\b`, Type: JunctionSharpTurn},
			{Pattern: `\bu-?turn\b`, Type: JunctionUTurn},
			{Pattern: `\blanes?\b`, Type: JunctionComplex},
			{Pattern: `\bslip\s*road\b`, Type: JunctionMerge},
		},
	}
}

// ResolvePatternsPath discovers the pattern table to load.
//
// Resolution order:
//  1. REHEARSE_PATTERNS_PATH environment variable (used as-is if set)
//  2. Explicit path parameter (if non-empty)
//  3. ./patterns.yaml if it exists
//  4. Empty string, meaning the built-in English table
func ResolvePatternsPath(path string) string {
	if envPath := os.Getenv("REHEARSE_PATTERNS_PATH"); envPath != "" {
		return envPath
	}
	if path != "" {
		return path
	}
	if _, err := os.Stat(DefaultPatternsPath); err == nil {
		return DefaultPatternsPath
	}
	return ""
}

// LoadPatterns reads a pattern table from a YAML file. Sections the file omits
// keep their built-in English values. An empty path returns the defaults.
func LoadPatterns(path string) (*PatternSet, error) {
	if path == "" {
		return DefaultPatterns(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patterns: %w", err)
	}
	return ParsePatterns(data)
}

// ParsePatterns parses a YAML pattern table over the English defaults.
func ParsePatterns(data []byte) (*PatternSet, error) {
	ps := DefaultPatterns()
	if err := yaml.Unmarshal(data, ps); err != nil {
		return nil, fmt.Errorf("failed to parse patterns: %w", err)
	}
	return ps, nil
}

// Marshal renders the table as YAML.
func (ps *PatternSet) Marshal() ([]byte, error) {
	return yaml.Marshal(ps)
}

type keywordMatcher struct {
	re  *regexp.Regexp
	typ JunctionType
}

// Patterns is a compiled [PatternSet].
type Patterns struct {
	continuation   []*regexp.Regexp
	cruiseBlockers []*regexp.Regexp
	laneCommitment []*regexp.Regexp
	roundabout     []*regexp.Regexp
	exitOrdinal    []*regexp.Regexp
	prepare        []*regexp.Regexp
	signage        []*regexp.Regexp
	pressure       []*regexp.Regexp
	keywords       []keywordMatcher
}

// Compile validates and compiles the table.
func (ps *PatternSet) Compile() (*Patterns, error) {
	p := &Patterns{}
	groups := []struct {
		name string
		src  []string
		dst  *[]*regexp.Regexp
	}{
		{"continuation", ps.Continuation, &p.continuation},
		{"cruise_blockers", ps.CruiseBlockers, &p.cruiseBlockers},
		{"lane_commitment", ps.LaneCommitment, &p.laneCommitment},
		{"roundabout", ps.Roundabout, &p.roundabout},
		{"exit_ordinal", ps.ExitOrdinal, &p.exitOrdinal},
		{"prepare", ps.Prepare, &p.prepare},
		{"signage", ps.Signage, &p.signage},
		{"pressure", ps.Pressure, &p.pressure},
	}
	for _, g := range groups {
		for _, src := range g.src {
			re, err := compile(src)
			if err != nil {
				return nil, fmt.Errorf("invalid %s pattern %q: %w", g.name, src, err)
			}
			*g.dst = append(*g.dst, re)
		}
	}

	for _, kw := range ps.Keywords {
		if !kw.Type.IsValid() {
			return nil, fmt.Errorf("keyword %q has unknown junction type %q", kw.Pattern, kw.Type)
		}
		re, err := compile(kw.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid keyword pattern %q: %w", kw.Pattern, err)
		}
		p.keywords = append(p.keywords, keywordMatcher{re: re, typ: kw.Type})
	}
	return p, nil
}

func compile(src string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + src)
}

func matchAny(res []*regexp.Regexp, texts ...string) bool {
	for _, re := range res {
		for _, t := range texts {
			if t != "" && re.MatchString(t) {
				return true
			}
		}
	}
	return false
}

// keywordType returns the junction type of the first matching keyword.
func (p *Patterns) keywordType(text string) (JunctionType, bool) {
	for _, kw := range p.keywords {
		if kw.re.MatchString(text) {
			return kw.typ, true
		}
	}
	return "", false
}
