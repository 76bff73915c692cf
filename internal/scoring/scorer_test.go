package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rehearse/internal/route"
)

func step(text string, meters float64, maneuver string) route.Step {
	return route.Step{
		Instruction:    text,
		PlainText:      route.StripMarkup(text),
		DistanceMeters: meters,
		Maneuver:       maneuver,
	}
}

func TestScorer_MotorwayCruiseSuppressed(t *testing.T) {
	s := NewDefaultScorer()
	next := step("Merge onto M4", 50, "merge")

	got := s.Score(step("Continue on M25 for 12 mi", 19000, ""), &next)

	assert.Equal(t, 0, got.Score)
	assert.True(t, got.Exclude)
	assert.Empty(t, got.Reasons)
}

func TestScorer_ContinuationWithCueIsNotCruise(t *testing.T) {
	s := NewDefaultScorer()

	got := s.Score(step("Continue on M25 and take exit 12", 2000, ""), nil)

	assert.False(t, got.Exclude)
	assert.Contains(t, got.Reasons, ReasonLaneCommitment)
	assert.GreaterOrEqual(t, got.Score, 6)
}

func TestScorer_RoundaboutWithExitOrdinal(t *testing.T) {
	s := NewDefaultScorer()

	got := s.Score(step("At the roundabout, take the <b>2nd</b> exit", 80, "roundabout-right"), nil)

	assert.Equal(t, 6, got.Score)
	assert.Equal(t, []Reason{ReasonRoundabout, ReasonRoundaboutExit}, got.Reasons)
	assert.NotContains(t, got.Reasons, ReasonLaneCommitment)
	assert.Equal(t, JunctionRoundabout, got.Type)
	assert.True(t, got.IsPrimary)
	assert.False(t, got.Exclude)
	assert.Equal(t, CommitmentMedium, got.Commitment)
}

func TestScorer_SmallRoundabout(t *testing.T) {
	s := NewDefaultScorer()

	tests := []struct {
		name        string
		meters      float64
		wantScore   int
		wantReasons []Reason
	}{
		{"short roundabout is de-prioritized", 80, 1, []Reason{ReasonRoundabout, ReasonSmallRoundabout}},
		{"long roundabout keeps full score", 200, 4, []Reason{ReasonRoundabout}},
		{"missing distance is not treated as small", 0, 4, []Reason{ReasonRoundabout}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(step("Enter the traffic circle", tt.meters, ""), nil)

			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantReasons, got.Reasons)
			assert.Equal(t, JunctionRoundabout, got.Type)
			assert.True(t, got.IsPrimary)
		})
	}
}

func TestScorer_ShortWindow(t *testing.T) {
	s := NewDefaultScorer()

	tests := []struct {
		name       string
		nextMeters float64
		wantScore  int
		wantWindow bool
	}{
		{"tight window", 100, 6 + 6 + 2, true},
		{"tight window boundary", 120, 6 + 6 + 2, true},
		{"near window", 200, 6 + 4 + 2, true},
		{"near window boundary", 250, 6 + 4 + 2, true},
		{"no window", 300, 6 + 2, false},
		{"unknown next distance", 0, 6 + 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := step("Merge", tt.nextMeters, "merge")
			got := s.Score(step("Prepare to merge onto M4", 500, ""), &next)

			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantWindow, got.HasReason(ReasonShortWindow))
			assert.Contains(t, got.Reasons, ReasonLaneCommitment)
			assert.Contains(t, got.Reasons, ReasonSignage)
		})
	}
}

func TestScorer_ShortWindow_NextMustBeMajor(t *testing.T) {
	s := NewDefaultScorer()

	t.Run("plain next step", func(t *testing.T) {
		next := step("Head east", 80, "")
		got := s.Score(step("Keep in the left lane", 600, ""), &next)
		assert.False(t, got.HasReason(ReasonShortWindow))
	})

	t.Run("plain turn counts as major", func(t *testing.T) {
		next := step("Turn left onto Mill Rd", 80, "turn-left")
		got := s.Score(step("Keep in the left lane", 600, ""), &next)
		assert.True(t, got.HasReason(ReasonShortWindow))
		assert.Equal(t, CommitmentHigh, got.Commitment)
	})

	t.Run("next matches complexity text", func(t *testing.T) {
		next := step("Keep right at the fork", 90, "")
		got := s.Score(step("Prepare to exit", 600, ""), &next)
		assert.True(t, got.HasReason(ReasonShortWindow))
	})

	t.Run("step must read as prepare", func(t *testing.T) {
		next := step("Merge", 80, "merge")
		got := s.Score(step("Turn right towards Bath", 600, "turn-right"), &next)
		assert.False(t, got.HasReason(ReasonShortWindow))
	})
}

func TestScorer_SignageAndPressure(t *testing.T) {
	s := NewDefaultScorer()

	t.Run("signage", func(t *testing.T) {
		got := s.Score(step("Turn left towards Reading", 400, "turn-left"), nil)
		assert.Equal(t, 2, got.Score)
		assert.Equal(t, []Reason{ReasonSignage}, got.Reasons)
		assert.Equal(t, JunctionComplex, got.Type)
		assert.Equal(t, CommitmentLow, got.Commitment)
	})

	t.Run("signage and pressure", func(t *testing.T) {
		got := s.Score(step("Turn right following signs for the Airport", 400, "turn-right"), nil)
		assert.Equal(t, 3, got.Score)
		assert.Equal(t, []Reason{ReasonSignage, ReasonPressure}, got.Reasons)
	})

	t.Run("road number in markup", func(t *testing.T) {
		got := s.Score(step("Turn onto <b>B4009</b>", 400, ""), nil)
		assert.Contains(t, got.Reasons, ReasonSignage)
	})

	t.Run("pressure only", func(t *testing.T) {
		got := s.Score(step("Turn right into the hospital car park", 100, "turn-right"), nil)
		assert.Equal(t, 1, got.Score)
		assert.Equal(t, []Reason{ReasonPressure}, got.Reasons)
	})
}

func TestScorer_ZeroScoreExclusion(t *testing.T) {
	s := NewDefaultScorer()

	t.Run("trivial step is excluded", func(t *testing.T) {
		got := s.Score(step("Head <b>north</b> on High St", 300, ""), nil)
		assert.Equal(t, 0, got.Score)
		assert.True(t, got.Exclude)
	})

	t.Run("keyword match keeps step", func(t *testing.T) {
		got := s.Score(step("Make a U-turn", 100, ""), nil)
		assert.Equal(t, 0, got.Score)
		assert.False(t, got.Exclude)
		assert.Equal(t, JunctionUTurn, got.Type)
	})

	t.Run("empty instruction", func(t *testing.T) {
		got := s.Score(step("", 0, ""), nil)
		assert.Equal(t, 0, got.Score)
		assert.True(t, got.Exclude)
		assert.Equal(t, JunctionComplex, got.Type)
	})
}

func TestScorer_JunctionType(t *testing.T) {
	s := NewDefaultScorer()

	tests := []struct {
		name     string
		text     string
		maneuver string
		want     JunctionType
	}{
		{"roundabout by maneuver", "Take the exit", "roundabout-left", JunctionRoundabout},
		{"roundabout text wins over maneuver", "At the gyratory take the 3rd exit", "merge", JunctionRoundabout},
		{"maneuver table", "Take the ramp onto M1", "ramp-left", JunctionMerge},
		{"fork maneuver", "Keep left", "fork-left", JunctionFork},
		{"sharp turn maneuver", "Turn sharp right", "turn-sharp-right", JunctionSharpTurn},
		{"uturn maneuver", "Make a U-turn", "uturn-right", JunctionUTurn},
		{"keyword merge onto", "Merge onto A1(M)", "", JunctionMerge},
		{"keyword keep right", "Keep right to stay on A40", "", JunctionFork},
		{"keyword sharp left", "Take a sharp left", "", JunctionSharpTurn},
		{"keyword lane", "Use the middle lane", "", JunctionComplex},
		{"keyword slip road", "Take the slip road", "", JunctionMerge},
		{"default complex", "Turn left", "turn-left", JunctionComplex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(step(tt.text, 300, tt.maneuver), nil)
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, tt.want == JunctionRoundabout, got.IsPrimary)
		})
	}
}

func TestScorer_ScoreAll(t *testing.T) {
	s := NewDefaultScorer()
	steps := []route.Step{
		step("Prepare to merge onto M4", 500, ""),
		step("Merge onto M4", 100, "merge"),
		step("Continue on M4 for 20 km", 20000, ""),
	}
	for i := range steps {
		steps[i].OrderIndex = i
	}

	scored := s.ScoreAll(steps)

	require.Len(t, scored, 3)
	for i, sc := range scored {
		assert.Equal(t, i, sc.OrderIndex)
	}
	assert.True(t, scored[0].HasReason(ReasonShortWindow), "first step sees its successor")
	assert.True(t, scored[2].Exclude)
	assert.Empty(t, s.ScoreAll(nil))
}

func TestScorer_Deterministic(t *testing.T) {
	s := NewDefaultScorer()
	next := step("Turn left", 90, "turn-left")
	cur := step("Keep in the right lane towards the city centre", 400, "")

	first := s.Score(cur, &next)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Score(cur, &next))
	}
}

func TestDeriveCommitment(t *testing.T) {
	tests := []struct {
		name    string
		reasons []Reason
		want    Commitment
	}{
		{"none", nil, CommitmentLow},
		{"signage only", []Reason{ReasonSignage, ReasonPressure}, CommitmentLow},
		{"lane only", []Reason{ReasonLaneCommitment}, CommitmentMedium},
		{"window only", []Reason{ReasonShortWindow}, CommitmentMedium},
		{"exit only", []Reason{ReasonRoundabout, ReasonRoundaboutExit}, CommitmentMedium},
		{"lane and window", []Reason{ReasonLaneCommitment, ReasonShortWindow}, CommitmentHigh},
		{"exit and lane", []Reason{ReasonLaneCommitment, ReasonRoundabout, ReasonRoundaboutExit}, CommitmentHigh},
		{"exit and window", []Reason{ReasonRoundaboutExit, ReasonShortWindow}, CommitmentMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveCommitment(tt.reasons))
		})
	}
}

func TestCommitment_Weight(t *testing.T) {
	assert.Equal(t, 1.0, CommitmentLow.Weight())
	assert.Equal(t, 1.5, CommitmentMedium.Weight())
	assert.Equal(t, 2.0, CommitmentHigh.Weight())
}

func TestJunctionType_Label(t *testing.T) {
	assert.Equal(t, "Roundabout", JunctionRoundabout.Label())
	assert.Equal(t, "Sharp turn", JunctionSharpTurn.Label())
	assert.Equal(t, "Complex junction", JunctionType("unknown").Label())
	assert.False(t, JunctionType("unknown").IsValid())
}

func TestParsePatterns_Locale(t *testing.T) {
	data := []byte(`
locale: de
roundabout:
  - '\bkreisverkehr\b'
exit_ordinal:
  - '\b\d+\.\s+ausfahrt\b'
`)
	ps, err := ParsePatterns(data)
	require.NoError(t, err)
	assert.Equal(t, "de", ps.Locale)
	assert.NotEmpty(t, ps.Signage, "omitted sections keep defaults")

	p, err := ps.Compile()
	require.NoError(t, err)
	s := NewScorer(p, DefaultRules())

	got := s.Score(step("Im Kreisverkehr die 2. Ausfahrt nehmen", 200, ""), nil)
	assert.Equal(t, JunctionRoundabout, got.Type)
	assert.Equal(t, []Reason{ReasonRoundabout, ReasonRoundaboutExit}, got.Reasons)

	english := s.Score(step("At the roundabout, take the 1st exit", 200, ""), nil)
	assert.NotEqual(t, JunctionRoundabout, english.Type, "english table was replaced")
}

func TestPatternSet_Compile_Errors(t *testing.T) {
	t.Run("invalid regex", func(t *testing.T) {
		ps := DefaultPatterns()
		ps.Signage = append(ps.Signage, `(unclosed`)
		_, err := ps.Compile()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "signage")
	})

	t.Run("unknown keyword type", func(t *testing.T) {
		ps := DefaultPatterns()
		ps.Keywords = append(ps.Keywords, KeywordRule{Pattern: "spiral", Type: "spiral"})
		_, err := ps.Compile()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown junction type")
	})
}

func TestPatternSet_MarshalRoundTrip(t *testing.T) {
	data, err := DefaultPatterns().Marshal()
	require.NoError(t, err)

	ps, err := ParsePatterns(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultPatterns(), ps)
}

func TestLoadPatterns(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		ps, err := LoadPatterns("")
		require.NoError(t, err)
		assert.Equal(t, DefaultPatterns(), ps)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPatterns(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read patterns")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("signage: {unclosed"), 0644))
		_, err := LoadPatterns(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse patterns")
	})
}

func TestResolvePatternsPath(t *testing.T) {
	t.Run("env wins", func(t *testing.T) {
		t.Setenv("REHEARSE_PATTERNS_PATH", "/env/patterns.yaml")
		assert.Equal(t, "/env/patterns.yaml", ResolvePatternsPath("/explicit.yaml"))
	})

	t.Run("explicit path", func(t *testing.T) {
		t.Setenv("REHEARSE_PATTERNS_PATH", "")
		assert.Equal(t, "/explicit.yaml", ResolvePatternsPath("/explicit.yaml"))
	})

	t.Run("auto-discovery", func(t *testing.T) {
		t.Setenv("REHEARSE_PATTERNS_PATH", "")
		t.Chdir(t.TempDir())
		assert.Equal(t, "", ResolvePatternsPath(""))

		require.NoError(t, os.WriteFile(DefaultPatternsPath, []byte("locale: en"), 0644))
		assert.Equal(t, DefaultPatternsPath, ResolvePatternsPath(""))
	})
}

func TestScorer_RoundaboutExitOntoRoadIsNotLaneCommitment(t *testing.T) {
	s := NewDefaultScorer()

	got := s.Score(step("At the roundabout, take the <b>2nd</b> exit onto <b>A40</b>", 400, "roundabout-right"), nil)

	assert.Equal(t, []Reason{ReasonRoundabout, ReasonRoundaboutExit, ReasonSignage}, got.Reasons)
	assert.Equal(t, 8, got.Score)
}

func TestScorer_MotorwayExitOnto(t *testing.T) {
	s := NewDefaultScorer()

	got := s.Score(step("Exit onto <b>A329(M)</b>", 900, ""), nil)

	assert.True(t, got.HasReason(ReasonLaneCommitment))
}

func TestScorer_IsPrepare(t *testing.T) {
	s := NewDefaultScorer()

	assert.True(t, s.IsPrepare("Keep left at the fork"))
	assert.True(t, s.IsPrepare("Use the ramp to M4"))
	assert.False(t, s.IsPrepare("Turn right onto High St"))
}
