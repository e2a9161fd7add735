package milestones

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/dmoclinic/internal/client/models"
	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/logging"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts every call that reaches the wrapped store.
type countingStore struct {
	store.Store
	calls atomic.Int32
}

func (c *countingStore) Get(ctx context.Context, path string) (*store.Document, error) {
	c.calls.Add(1)
	return c.Store.Get(ctx, path)
}

func (c *countingStore) Set(ctx context.Context, path string, fields map[string]any) (int64, error) {
	c.calls.Add(1)
	return c.Store.Set(ctx, path, fields)
}

func (c *countingStore) CompareAndSet(ctx context.Context, path string, fields map[string]any, version int64) (int64, error) {
	c.calls.Add(1)
	return c.Store.CompareAndSet(ctx, path, fields, version)
}

// failingStore fails every write to paths under prefix.
type failingStore struct {
	store.Store
	prefix string
}

func (f *failingStore) CompareAndSet(ctx context.Context, path string, fields map[string]any, version int64) (int64, error) {
	if store.Parent(path) == f.prefix {
		return 0, common.ErrRemoteUnavailable
	}
	return f.Store.CompareAndSet(ctx, path, fields, version)
}

func newEngine(t *testing.T, points int64) (*Engine, *store.MemoryStore) {
	t.Helper()
	m := store.NewMemoryStore()
	u := models.UserAccount{FirstName: "Ann", WeightProgress: []float64{80}, Points: points}
	_, err := m.Set(context.Background(), models.UserPath("u1"), u.Fields())
	require.NoError(t, err)
	return NewEngine(m, logging.Nop()), m
}

func readUser(t *testing.T, m store.Store) *models.UserAccount {
	t.Helper()
	doc, err := m.Get(context.Background(), models.UserPath("u1"))
	require.NoError(t, err)
	return models.UserFromDocument(doc)
}

func TestEngine_Scenario(t *testing.T) {
	e, m := newEngine(t, 10)
	ctx := context.Background()

	require.NoError(t, e.SetMilestone(ctx, "u1", 70.0, 50))

	out, err := e.RecordWeight(ctx, "u1", 72.0)
	require.NoError(t, err)
	assert.Zero(t, out.Awarded)
	assert.Equal(t, int64(10), readUser(t, m).Points)

	ms, err := e.Milestone(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.Milestone{ThresholdWeight: 70, AwardPoints: 50}, ms)

	out, err = e.RecordWeight(ctx, "u1", 69.5)
	require.NoError(t, err)
	assert.Equal(t, int64(50), out.Awarded)
	assert.Equal(t, int64(60), out.Points)
	assert.Equal(t, models.Milestone{ThresholdWeight: 70, AwardPoints: 50}, out.Milestone)

	u := readUser(t, m)
	assert.Equal(t, int64(60), u.Points)
	assert.Equal(t, []float64{80, 72, 69.5}, u.WeightProgress)

	ms, err = e.Milestone(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.Disarmed, ms)
	assert.False(t, ms.Armed())
}

func TestEngine_RecordWeight_ThresholdIsInclusive(t *testing.T) {
	e, m := newEngine(t, 0)
	ctx := context.Background()

	require.NoError(t, e.SetMilestone(ctx, "u1", 70.0, 25))

	out, err := e.RecordWeight(ctx, "u1", 70.0)
	require.NoError(t, err)
	assert.Equal(t, int64(25), out.Awarded)
	assert.Equal(t, int64(25), readUser(t, m).Points)
}

func TestEngine_RecordWeight_DisarmedNeverAwards(t *testing.T) {
	e, m := newEngine(t, 5)
	ctx := context.Background()

	for _, w := range []float64{60, 50, 1} {
		out, err := e.RecordWeight(ctx, "u1", w)
		require.NoError(t, err)
		assert.Zero(t, out.Awarded)
	}
	u := readUser(t, m)
	assert.Equal(t, int64(5), u.Points)
	assert.Equal(t, []float64{80, 60, 50, 1}, u.WeightProgress)

	_, err := m.Get(ctx, models.MilestonePath("u1"))
	assert.ErrorIs(t, err, common.ErrorNotFound, "evaluating a missing milestone must not create one")
}

func TestEngine_RecordWeight_FiresOnce(t *testing.T) {
	e, m := newEngine(t, 0)
	ctx := context.Background()

	require.NoError(t, e.SetMilestone(ctx, "u1", 70.0, 50))

	_, err := e.RecordWeight(ctx, "u1", 69)
	require.NoError(t, err)
	out, err := e.RecordWeight(ctx, "u1", 68)
	require.NoError(t, err)
	assert.Zero(t, out.Awarded)
	assert.Equal(t, int64(50), readUser(t, m).Points)
}

func TestEngine_RecordWeight_ConcurrentFiresOnce(t *testing.T) {
	e, m := newEngine(t, 0)
	e.attempts = 50
	ctx := context.Background()

	require.NoError(t, e.SetMilestone(ctx, "u1", 70.0, 50))

	const n = 8
	var wg sync.WaitGroup
	var fired atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := e.RecordWeight(ctx, "u1", 65)
			assert.NoError(t, err)
			if out.Awarded > 0 {
				fired.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fired.Load())
	u := readUser(t, m)
	assert.Equal(t, int64(50), u.Points)
	assert.Len(t, u.WeightProgress, n+1, "no weight sample may be lost")
}

func TestEngine_RecordWeight_InvalidInput(t *testing.T) {
	m := store.NewMemoryStore()
	cs := &countingStore{Store: m}
	e := NewEngine(cs, logging.Nop())

	for _, w := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 0, -3} {
		_, err := e.RecordWeight(context.Background(), "u1", w)
		require.ErrorIs(t, err, common.ErrInvalidInput, "weight %v", w)
	}
	assert.Zero(t, cs.calls.Load())
}

func TestEngine_RecordWeight_UnknownUser(t *testing.T) {
	e := NewEngine(store.NewMemoryStore(), logging.Nop())

	_, err := e.RecordWeight(context.Background(), "ghost", 70)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestEngine_RecordWeight_PayoutFailureAfterClaim(t *testing.T) {
	m := store.NewMemoryStore()
	ctx := context.Background()
	_, err := m.Set(ctx, models.UserPath("u1"), (&models.UserAccount{}).Fields())
	require.NoError(t, err)

	e := NewEngine(m, logging.Nop())
	require.NoError(t, e.SetMilestone(ctx, "u1", 70, 50))

	// Weight append succeeds, the points write does not.
	var writes atomic.Int32
	e.store = &flakyUserStore{Store: m, okWrites: 1, writes: &writes}

	out, err := e.RecordWeight(ctx, "u1", 60)
	require.ErrorIs(t, err, common.ErrRemoteUnavailable)
	assert.Equal(t, int64(50), out.Awarded)

	ms, err := e.Milestone(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ms.Armed(), "the claim is not rolled back")
}

// flakyUserStore lets okWrites user writes through and fails the rest.
type flakyUserStore struct {
	store.Store
	okWrites int32
	writes   *atomic.Int32
}

func (f *flakyUserStore) CompareAndSet(ctx context.Context, path string, fields map[string]any, version int64) (int64, error) {
	if store.Parent(path) == models.UsersCollection && f.writes.Add(1) > f.okWrites {
		return 0, common.ErrRemoteUnavailable
	}
	return f.Store.CompareAndSet(ctx, path, fields, version)
}

func TestEngine_RecordWeight_RemoteFailure(t *testing.T) {
	e, m := newEngine(t, 0)
	ctx := context.Background()
	require.NoError(t, e.SetMilestone(ctx, "u1", 70, 50))

	e.store = &failingStore{Store: m, prefix: models.MilestonesCollection}

	_, err := e.RecordWeight(ctx, "u1", 60)
	require.ErrorIs(t, err, common.ErrRemoteUnavailable)
	assert.Equal(t, int64(0), readUser(t, m).Points)
}

func TestEngine_SetMilestone(t *testing.T) {
	ctx := context.Background()

	t.Run("non-positive values are ignored", func(t *testing.T) {
		m := store.NewMemoryStore()
		cs := &countingStore{Store: m}
		e := NewEngine(cs, logging.Nop())

		require.NoError(t, e.SetMilestone(ctx, "u1", 0, 50))
		require.NoError(t, e.SetMilestone(ctx, "u1", 70, 0))
		require.NoError(t, e.SetMilestone(ctx, "u1", -1, -1))
		assert.Zero(t, cs.calls.Load())
	})

	t.Run("does not disarm an armed milestone", func(t *testing.T) {
		e, _ := newEngine(t, 0)
		require.NoError(t, e.SetMilestone(ctx, "u1", 70, 50))
		require.NoError(t, e.SetMilestone(ctx, "u1", 0, 0))

		ms, err := e.Milestone(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, ms.Armed())
	})

	t.Run("overwrites", func(t *testing.T) {
		e, _ := newEngine(t, 0)
		require.NoError(t, e.SetMilestone(ctx, "u1", 70, 50))
		require.NoError(t, e.SetMilestone(ctx, "u1", 65, 80))

		ms, err := e.Milestone(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, models.Milestone{ThresholdWeight: 65, AwardPoints: 80}, ms)
	})

	t.Run("not a number", func(t *testing.T) {
		e, _ := newEngine(t, 0)
		err := e.SetMilestone(ctx, "u1", math.NaN(), 50)
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})
}

func TestEngine_AdjustPoints(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		start int64
		delta int64
		want  int64
	}{
		{"award", 5, 20, 25},
		{"deduct", 30, -10, 20},
		{"clamps at zero", 5, -1000, 0},
		{"zero delta", 7, 0, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, m := newEngine(t, tt.start)

			got, err := e.AdjustPoints(ctx, "u1", tt.delta)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, readUser(t, m).Points)
		})
	}
}

func TestEngine_AdjustPoints_Errors(t *testing.T) {
	ctx := context.Background()

	e := NewEngine(store.NewMemoryStore(), logging.Nop())
	_, err := e.AdjustPoints(ctx, "ghost", 5)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	e, m := newEngine(t, 5)
	e.store = &failingStore{Store: m, prefix: models.UsersCollection}
	_, err = e.AdjustPoints(ctx, "u1", 5)
	assert.True(t, errors.Is(err, common.ErrRemoteUnavailable))
}
