package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRequiresPlan(t *testing.T) {
	s := NewSession(newTestBuilder(DefaultCostModel()))

	_, err := s.ApplyBudget(100)
	assert.ErrorIs(t, err, ErrNoPlan)
	_, err = s.Reset()
	assert.ErrorIs(t, err, ErrNoPlan)
	assert.Nil(t, s.Original())
	assert.Nil(t, s.Current())
}

func TestSessionResetRestoresSnapshot(t *testing.T) {
	s := NewSession(newTestBuilder(DefaultCostModel()))
	generatedPlan, err := s.Generate(context.Background(), dubaiLondon(), nil)
	require.NoError(t, err)

	restored, err := s.Reset()
	require.NoError(t, err)
	assert.Equal(t, generatedPlan, restored, "reset without scaling is a no-op")

	for _, target := range []float64{2000, 900, 300, 1} {
		_, err := s.ApplyBudget(target)
		require.NoError(t, err)
	}
	assert.NotEqual(t, generatedPlan.Totals, s.Current().Totals)
	require.NotNil(t, s.LastFit())

	restored, err = s.Reset()
	require.NoError(t, err)
	assert.Equal(t, generatedPlan, restored)
	assert.Equal(t, generatedPlan, s.Current())
	assert.Nil(t, s.LastFit())
}

func TestSessionFitsFromSnapshotNotWorkingPlan(t *testing.T) {
	s := NewSession(newTestBuilder(DefaultCostModel()))
	_, err := s.Generate(context.Background(), dubaiLondon(), nil)
	require.NoError(t, err)

	direct, err := s.ApplyBudget(1500)
	require.NoError(t, err)

	_, err = s.ApplyBudget(400)
	require.NoError(t, err)
	again, err := s.ApplyBudget(1500)
	require.NoError(t, err)

	assert.Equal(t, direct, again)
}

func TestSessionCallersCannotMutateSnapshot(t *testing.T) {
	s := NewSession(newTestBuilder(DefaultCostModel()))
	it, err := s.Generate(context.Background(), dubaiLondon(), nil)
	require.NoError(t, err)

	it.Days[0].Cost.Accommodation = 1
	s.Current().Days[0].Cost.Accommodation = 2
	assert.Equal(t, 120.0, s.Original().Days[0].Cost.Accommodation)
}

func TestSessionRegenerateReplacesSnapshot(t *testing.T) {
	s := NewSession(newTestBuilder(DefaultCostModel()))
	_, err := s.Generate(context.Background(), dubaiLondon(), nil)
	require.NoError(t, err)
	_, err = s.ApplyBudget(1000)
	require.NoError(t, err)

	req := TripRequest{Destinations: []string{"Paris"}, StartDate: "2025-07-01", EndDate: "2025-07-03"}
	second, err := s.Generate(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, second, s.Original())
	assert.Equal(t, second, s.Current())
	assert.Equal(t, req, s.Request())
	assert.Nil(t, s.LastFit())

	_, err = s.Generate(context.Background(), TripRequest{}, nil)
	require.Error(t, err)
	assert.Equal(t, second, s.Original(), "failed regeneration keeps the previous snapshot")
}
