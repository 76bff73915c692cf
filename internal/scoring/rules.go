package scoring

// Weights are the score contributions of each rule.
type Weights struct {
	LaneCommitment  int `mapstructure:"lane_commitment" yaml:"lane_commitment"`
	Roundabout      int `mapstructure:"roundabout" yaml:"roundabout"`
	RoundaboutExit  int `mapstructure:"roundabout_exit" yaml:"roundabout_exit"`
	SmallRoundabout int `mapstructure:"small_roundabout" yaml:"small_roundabout"`
	TightWindow     int `mapstructure:"tight_window" yaml:"tight_window"`
	NearWindow      int `mapstructure:"near_window" yaml:"near_window"`
	Signage         int `mapstructure:"signage" yaml:"signage"`
	Pressure        int `mapstructure:"pressure" yaml:"pressure"`
}

// Thresholds are the distance limits used by the rules, in meters.
type Thresholds struct {
	// SmallRoundaboutMeters: a roundabout step shorter than this, with no exit
	// ordinal, is de-prioritized.
	SmallRoundaboutMeters float64 `mapstructure:"small_roundabout_meters" yaml:"small_roundabout_meters"`

	// TightWindowMeters and NearWindowMeters bound the distance of the next
	// maneuver for the short decision window rule.
	TightWindowMeters float64 `mapstructure:"tight_window_meters" yaml:"tight_window_meters"`
	NearWindowMeters  float64 `mapstructure:"near_window_meters" yaml:"near_window_meters"`
}

// Rules holds the language-independent scoring configuration.
type Rules struct {
	Weights    Weights    `mapstructure:"weights" yaml:"weights"`
	Thresholds Thresholds `mapstructure:"thresholds" yaml:"thresholds"`

	// ManeuverTypes maps routing-service maneuver codes to junction types.
	// Every code listed here counts as a major maneuver.
	ManeuverTypes map[string]JunctionType `mapstructure:"maneuver_types" yaml:"maneuver_types"`

	// TurnManeuvers are plain turns: major for the short window rule but
	// without a junction type of their own.
	TurnManeuvers []string `mapstructure:"turn_maneuvers" yaml:"turn_maneuvers"`
}

// DefaultRules returns the standard weights, thresholds and maneuver tables.
func DefaultRules() Rules {
	return Rules{
		Weights: Weights{
			LaneCommitment:  6,
			Roundabout:      4,
			RoundaboutExit:  2,
			SmallRoundabout: -3,
			TightWindow:     6,
			NearWindow:      4,
			Signage:         2,
			Pressure:        1,
		},
		Thresholds: Thresholds{
			SmallRoundaboutMeters: 120,
			TightWindowMeters:     120,
			NearWindowMeters:      250,
		},
		ManeuverTypes: map[string]JunctionType{
			"roundabout-left":  JunctionRoundabout,
			"roundabout-right": JunctionRoundabout,
			"merge":            JunctionMerge,
			"fork-left":        JunctionFork,
			"fork-right":       JunctionFork,
			"ramp-left":        JunctionMerge,
			"ramp-right":       JunctionMerge,
			"turn-sharp-left":  JunctionSharpTurn,
			"turn-sharp-right": JunctionSharpTurn,
			"uturn-left":       JunctionUTurn,
			"uturn-right":      JunctionUTurn,
		},
		TurnManeuvers: []string{"turn-left", "turn-right"},
	}
}
