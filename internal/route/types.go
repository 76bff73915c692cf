// Package route models the routing service's directions result and flattens it
// into a single ordered step list.
//
// The input shape follows the widely used directions format: a result holds one
// or more candidate routes, each route holds legs, each leg holds steps. Only the
// first route is ever analyzed.
//
// Key types:
//   - [Result] is the decoded directions document
//   - [Step] is one flattened step with derived heading and plain text
//
// Decoding is permissive: absent distances and coordinates decode to zero values
// and absent instructions decode to the empty string.
package route

import "rehearse/internal/geo"

// Result is the top-level directions document returned by the routing service.
type Result struct {
	Routes []Route `json:"routes"`
}

// Primary returns the first route, or nil when the result holds no routes.
func (r *Result) Primary() *Route {
	if r == nil || len(r.Routes) == 0 {
		return nil
	}
	return &r.Routes[0]
}

// Route is one candidate route.
type Route struct {
	Summary string `json:"summary,omitempty"`
	Legs    []Leg  `json:"legs"`
}

// Leg is the part of a route between two waypoints.
type Leg struct {
	Distance Distance  `json:"distance"`
	Steps    []RawStep `json:"steps"`
}

// Distance pairs a metric value with the service's display text.
type Distance struct {
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

// RawStep is a single step exactly as the routing service supplied it.
type RawStep struct {
	StartLocation    geo.LatLng `json:"start_location"`
	EndLocation      geo.LatLng `json:"end_location"`
	Distance         Distance   `json:"distance"`
	HTMLInstructions string     `json:"html_instructions"`

	// Maneuver is an optional code such as "roundabout-left", "merge" or "fork-right".
	Maneuver string `json:"maneuver,omitempty"`
}

// TotalDistance returns the route length in meters as the sum of leg distances.
// A leg without a distance contributes the sum of its step distances instead.
func (r *Route) TotalDistance() float64 {
	if r == nil {
		return 0
	}
	var total float64
	for _, leg := range r.Legs {
		if leg.Distance.Value > 0 {
			total += leg.Distance.Value
			continue
		}
		for _, s := range leg.Steps {
			if s.Distance.Value > 0 {
				total += s.Distance.Value
			}
		}
	}
	return total
}

// Step is a flattened step: the raw step plus its route-wide position, heading
// and markup-free instruction.
type Step struct {
	// OrderIndex is strictly increasing across the whole route, starting at 0.
	OrderIndex int `json:"orderIndex"`
	LegIndex   int `json:"legIndex"`
	StepIndex  int `json:"stepIndex"`

	Start geo.LatLng `json:"start"`
	End   geo.LatLng `json:"end"`

	DistanceMeters float64 `json:"distanceMeters"`
	DistanceText   string  `json:"distanceText"`

	// Instruction is the markup-annotated text as supplied.
	Instruction string `json:"instruction"`
	// PlainText is Instruction with all markup removed.
	PlainText string `json:"plainText"`

	// Heading is the initial bearing from Start toward End in degrees [0, 360).
	Heading float64 `json:"heading"`

	Maneuver string `json:"maneuver,omitempty"`
}
