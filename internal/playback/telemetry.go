package playback

import (
	"sort"
	"time"

	"rehearse/internal/selection"
)

// minStressDwell is the shortest dwell that counts as lingering.
const minStressDwell = time.Millisecond

// DwellRecord is the accumulated on-screen time of one decision point.
type DwellRecord struct {
	Index   int           `json:"index"`
	Dwell   time.Duration `json:"dwell"`
	Visits  int           `json:"visits"`
	Seconds float64       `json:"seconds"`
}

// StressEntry ranks a decision point by commitment-weighted dwell.
type StressEntry struct {
	Point         selection.DecisionPoint `json:"point"`
	DwellSeconds  float64                 `json:"dwellSeconds"`
	Weight        float64                 `json:"weight"`
	WeightedDwell float64                 `json:"weightedDwell"`
}

// Dwell returns the total time point i has been current, including the visit
// in progress. It returns 0 for an unknown index.
func (s *Sequencer) Dwell(i int) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dwellLocked(i)
}

// DwellRecords returns one record per point, in sequence order.
func (s *Sequencer) DwellRecords() []DwellRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DwellRecord, len(s.dwell))
	for i := range s.dwell {
		d := s.dwellLocked(i)
		out[i] = DwellRecord{Index: i, Dwell: d, Visits: s.visits[i], Seconds: d.Seconds()}
	}
	return out
}

// StressSummary returns up to n points with the highest weighted dwell, where
// the weight comes from the point's commitment level. Points never dwelt on
// are left out. Ties keep sequence order.
func (s *Sequencer) StressSummary(n int) []StressEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []StressEntry
	for i, p := range s.points {
		d := s.dwellLocked(i)
		if d < minStressDwell {
			continue
		}
		w := p.Commitment.Weight()
		entries = append(entries, StressEntry{
			Point:         p,
			DwellSeconds:  d.Seconds(),
			Weight:        w,
			WeightedDwell: d.Seconds() * w,
		})
	}
	return topStress(entries, n)
}

// RankStress orders entries by weighted dwell and keeps the first n, with
// ties in index order. entries is not modified.
func RankStress(entries []StressEntry, n int) []StressEntry {
	return topStress(append([]StressEntry(nil), entries...), n)
}

func topStress(entries []StressEntry, n int) []StressEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].WeightedDwell != entries[j].WeightedDwell {
			return entries[i].WeightedDwell > entries[j].WeightedDwell
		}
		return entries[i].Point.Index < entries[j].Point.Index
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	if entries == nil {
		entries = []StressEntry{}
	}
	return entries
}

func (s *Sequencer) dwellLocked(i int) time.Duration {
	if i < 0 || i >= len(s.dwell) {
		return 0
	}
	d := s.dwell[i]
	if i == s.index && !s.shownAt.IsZero() {
		if live := s.clock.Now().Sub(s.shownAt); live > 0 {
			d += live
		}
	}
	return d
}
