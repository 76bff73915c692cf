package route

import "rehearse/internal/geo"

// Flatten normalizes the route into one ordered step list.
//
// Leg and step indices are preserved and OrderIndex increases by one per step
// across the whole route. Every step is kept; nothing is filtered here.
// A nil route yields an empty list.
func Flatten(r *Route) []Step {
	if r == nil {
		return nil
	}

	var steps []Step
	order := 0
	for li, leg := range r.Legs {
		for si, raw := range leg.Steps {
			dist := raw.Distance.Value
			if dist < 0 {
				dist = 0
			}
			steps = append(steps, Step{
				OrderIndex:     order,
				LegIndex:       li,
				StepIndex:      si,
				Start:          raw.StartLocation,
				End:            raw.EndLocation,
				DistanceMeters: dist,
				DistanceText:   raw.Distance.Text,
				Instruction:    raw.HTMLInstructions,
				PlainText:      StripMarkup(raw.HTMLInstructions),
				Heading:        geo.Bearing(raw.StartLocation, raw.EndLocation),
				Maneuver:       raw.Maneuver,
			})
			order++
		}
	}
	return steps
}
