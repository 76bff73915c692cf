package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rehearse/internal/geo"
	"rehearse/internal/playback"
	"rehearse/internal/scoring"
	"rehearse/internal/selection"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func samplePoints() []selection.DecisionPoint {
	return []selection.DecisionPoint{
		{
			Index:        0,
			OrderIndex:   1,
			Location:     geo.LatLng{Lat: 51.5, Lng: -0.12},
			Instruction:  "At the roundabout, take the 2nd exit",
			JunctionType: scoring.JunctionRoundabout,
			Commitment:   scoring.CommitmentMedium,
			Score:        6,
			Reasons:      []scoring.Reason{scoring.ReasonRoundabout, scoring.ReasonRoundaboutExit},
		},
		{
			Index:           1,
			OrderIndex:      3,
			Location:        geo.LatLng{Lat: 51.51, Lng: -0.11},
			Instruction:     "Keep in the left lane to merge onto M4",
			JunctionType:    scoring.JunctionMerge,
			Commitment:      scoring.CommitmentHigh,
			Score:           14,
			IsDecisionPoint: true,
			Reasons:         []scoring.Reason{scoring.ReasonLaneCommitment, scoring.ReasonShortWindow},
		},
	}
}

func sampleSession(started time.Time, dwell0, dwell1 float64) *Session {
	records := []playback.DwellRecord{
		{Index: 0, Seconds: dwell0, Visits: 1},
		{Index: 1, Seconds: dwell1, Visits: 2},
	}
	return NewSession("M4", 24000, samplePoints(), records, true, started, started.Add(time.Minute))
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, path, s.Path())
	require.NoError(t, s.Save(context.Background(), sampleSession(t0, 5, 5)))

	require.NoError(t, s.Close())
	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	list, err := reopened.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNewSession(t *testing.T) {
	sess := sampleSession(t0, 10, 4)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, 2, sess.PointCount)
	assert.Equal(t, 14.0, sess.TotalDwellSeconds)
	require.Len(t, sess.Points, 2)
	assert.Equal(t, 15.0, sess.Points[0].WeightedDwell)
	assert.Equal(t, 8.0, sess.Points[1].WeightedDwell)
	assert.Equal(t, 2, sess.Points[1].Visits)
}

func TestNewSession_MissingRecord(t *testing.T) {
	sess := NewSession("x", 0, samplePoints(), nil, false, t0, t0)

	assert.Zero(t, sess.TotalDwellSeconds)
	assert.Zero(t, sess.Points[1].DwellSeconds)
}

func TestSession_Stress(t *testing.T) {
	sess := sampleSession(t0, 10, 4)

	top := sess.Stress(3)

	require.Len(t, top, 2)
	assert.Equal(t, 0, top[0].Point.Index)
	assert.Equal(t, 15.0, top[0].WeightedDwell)
	assert.Equal(t, 1.5, top[0].Weight)
	assert.Equal(t, "Roundabout", top[0].Point.JunctionLabel)
	assert.Equal(t, 1, top[1].Point.Index)
	assert.Equal(t, 8.0, top[1].WeightedDwell)

	assert.Len(t, sess.Stress(1), 1)
}

func TestSession_Stress_SkipsZeroDwell(t *testing.T) {
	sess := sampleSession(t0, 0, 4)

	top := sess.Stress(3)

	require.Len(t, top, 1)
	assert.Equal(t, 1, top[0].Point.Index)
	assert.Empty(t, NewSession("x", 0, samplePoints(), nil, false, t0, t0).Stress(3))
}

func TestNewSessionID_Unique(t *testing.T) {
	assert.NotEqual(t, NewSessionID(), NewSessionID())
}

func TestStore_SaveAndGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	sess := sampleSession(t0, 10, 4)

	require.NoError(t, s.Save(ctx, sess))
	got, err := s.Get(ctx, sess.ID)

	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "M4", got.RouteLabel)
	assert.Equal(t, 24000.0, got.TotalMeters)
	assert.True(t, got.Completed)
	assert.True(t, got.StartedAt.Equal(t0))
	assert.True(t, got.EndedAt.Equal(t0.Add(time.Minute)))
	require.Len(t, got.Points, 2)
	assert.Equal(t, sess.Points[0].Reasons, got.Points[0].Reasons)
	assert.Equal(t, scoring.JunctionMerge, got.Points[1].JunctionType)
	assert.Equal(t, scoring.CommitmentHigh, got.Points[1].Commitment)
	assert.True(t, got.Points[1].IsDecisionPoint)
	assert.False(t, got.Points[0].IsLeadIn)
	assert.Equal(t, 51.51, got.Points[1].Location.Lat)
}

func TestStore_GetByPrefix(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	a := sampleSession(t0, 1, 1)
	a.ID = "abc-111"
	b := sampleSession(t0, 1, 1)
	b.ID = "abd-222"
	require.NoError(t, s.Save(ctx, a))
	require.NoError(t, s.Save(ctx, b))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc-111", got.ID)

	_, err = s.Get(ctx, "ab")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	_, err = s.Get(ctx, "zzz")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = s.Get(ctx, "a%")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = s.Get(ctx, "  ")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_List(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Save(ctx, sampleSession(t0.Add(time.Duration(i)*time.Hour), 1, 1)))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].StartedAt.Equal(t0.Add(2*time.Hour)), "newest first")
	assert.Nil(t, all[0].Points)

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStore_List_Empty(t *testing.T) {
	s := newStore(t)

	list, err := s.List(context.Background(), 10)

	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestStore_Delete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	sess := sampleSession(t0, 1, 1)
	require.NoError(t, s.Save(ctx, sess))

	require.NoError(t, s.Delete(ctx, sess.ID))

	_, err := s.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, s.Delete(ctx, sess.ID), ErrSessionNotFound)

	lingered, err := s.MostLingered(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, lingered, "points are removed with their session")
}

func TestStore_MostLingered(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	first := sampleSession(t0, 10, 4)
	second := sampleSession(t0.Add(time.Hour), 2, 6)
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	got, err := s.MostLingered(ctx, 3)

	require.NoError(t, err)
	require.Len(t, got, 2)
	// Roundabout: (10+2) x 1.5 = 18. Merge: (4+6) x 2 = 20.
	assert.Equal(t, "Keep in the left lane to merge onto M4", got[0].Instruction)
	assert.Equal(t, 20.0, got[0].WeightedDwell)
	assert.Equal(t, 10.0, got[0].DwellSeconds)
	assert.Equal(t, 2, got[0].Sessions)
	assert.Equal(t, scoring.CommitmentHigh, got[0].MaxCommitment)
	assert.Equal(t, second.ID, got[0].LastSeenSessionID)
	assert.Equal(t, 18.0, got[1].WeightedDwell)
	assert.Equal(t, scoring.JunctionRoundabout, got[1].JunctionType)

	top, err := s.MostLingered(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestStore_MostLingered_SkipsZeroDwell(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleSession(t0, 0, 3)))

	got, err := s.MostLingered(ctx, 5)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, scoring.JunctionMerge, got[0].JunctionType)
}
