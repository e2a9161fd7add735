package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/dmoclinic/internal/authx"
	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/logging"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocumentService(t *testing.T) (*DocumentService, *store.MemoryStore) {
	t.Helper()
	m := store.NewMemoryStore()
	return NewDocumentService(m, NewPolicy(nil), logging.Nop()), m
}

var (
	patientU1   = authx.Identity{UserID: "u1", Role: common.RolePatient}
	clinicianC1 = authx.Identity{UserID: "c1", Role: common.RoleClinician}
)

func TestDocumentService_RequiresIdentity(t *testing.T) {
	s, _ := newDocumentService(t)
	ctx := context.Background()

	_, err := s.Get(ctx, authx.Identity{}, "users/u1")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Set(ctx, authx.Identity{}, "users/u1", nil)
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Push(ctx, authx.Identity{}, "chats", nil)
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.List(ctx, authx.Identity{}, "diets")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestDocumentService_WritesThroughPolicy(t *testing.T) {
	s, m := newDocumentService(t)
	ctx := context.Background()

	v, err := s.Set(ctx, clinicianC1, "milestones/u1", map[string]any{"milestoneWeight": 70.0, "awardPoints": 50})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = s.Update(ctx, patientU1, "milestones/u1", map[string]any{"milestoneWeight": 65.0})
	require.ErrorIs(t, err, common.ErrForbidden)

	_, err = m.Set(ctx, "users/u1", map[string]any{"weightProgress": []any{72.0, 69.5}})
	require.NoError(t, err)

	v, err = s.CompareAndSet(ctx, patientU1, "milestones/u1", map[string]any{"milestoneWeight": 0, "awardPoints": 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	doc, err := m.Get(ctx, "milestones/u1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, doc.Fields["milestoneWeight"])
}

func TestDocumentService_ReadsAreOpen(t *testing.T) {
	s, m := newDocumentService(t)
	ctx := context.Background()

	_, err := m.Set(ctx, "diets/d1", map[string]any{"name": "Keto"})
	require.NoError(t, err)

	doc, err := s.Get(ctx, patientU1, "diets/d1")
	require.NoError(t, err)
	assert.Equal(t, "Keto", doc.Fields["name"])

	docs, err := s.List(ctx, patientU1, "diets")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDocumentService_Push(t *testing.T) {
	s, m := newDocumentService(t)
	ctx := context.Background()

	id, err := s.Push(ctx, patientU1, "chats/c1/messages", map[string]any{"content": "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = s.Push(ctx, patientU1, "diets", map[string]any{"name": "x"})
	require.ErrorIs(t, err, common.ErrForbidden)

	_, err = s.Push(ctx, patientU1, "chats//messages", nil)
	require.ErrorIs(t, err, common.ErrInvalidInput)

	all, err := s.Dump(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = m.Get(ctx, store.Join("chats/c1/messages", id))
	require.NoError(t, err)
}

func TestDocumentService_InvalidPath(t *testing.T) {
	s, _ := newDocumentService(t)
	_, err := s.Set(context.Background(), clinicianC1, "users/", nil)
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestDocumentService_PatientClaimsAwardOnce(t *testing.T) {
	s, m := newDocumentService(t)
	ctx := context.Background()

	_, err := s.Set(ctx, clinicianC1, "milestones/u1", map[string]any{"milestoneWeight": 70.0, "awardPoints": 50})
	require.NoError(t, err)
	_, err = s.Set(ctx, clinicianC1, "users/u1", map[string]any{"points": 10, "weightProgress": []any{72.0}})
	require.NoError(t, err)

	disarm := map[string]any{"milestoneWeight": 0, "awardPoints": 0}
	_, err = s.Set(ctx, patientU1, "milestones/u1", disarm)
	require.ErrorIs(t, err, common.ErrForbidden, "threshold not reached yet")

	_, err = s.Update(ctx, patientU1, "users/u1", map[string]any{"points": 60})
	require.ErrorIs(t, err, common.ErrForbidden, "nothing claimed yet")

	_, err = s.Update(ctx, patientU1, "users/u1", map[string]any{"weightProgress": []any{72.0, 69.5}})
	require.NoError(t, err)
	_, err = s.Set(ctx, patientU1, "milestones/u1", disarm)
	require.NoError(t, err)

	_, err = s.Update(ctx, patientU1, "users/u1", map[string]any{"points": 70})
	require.ErrorIs(t, err, common.ErrForbidden, "only the claimed award")
	_, err = s.Update(ctx, patientU1, "users/u1", map[string]any{"points": 60})
	require.NoError(t, err)

	_, err = s.Update(ctx, patientU1, "users/u1", map[string]any{"points": 110})
	require.ErrorIs(t, err, common.ErrForbidden, "the award is paid once")

	// Disarming an already disarmed milestone grants nothing.
	_, err = s.Set(ctx, patientU1, "milestones/u1", disarm)
	require.NoError(t, err)
	_, err = s.Update(ctx, patientU1, "users/u1", map[string]any{"points": 110})
	require.ErrorIs(t, err, common.ErrForbidden)

	doc, err := m.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, int64(60), store.Int(doc.Fields, "points"))
}

func TestDocumentService_PatientPointsWrites(t *testing.T) {
	s, _ := newDocumentService(t)
	ctx := context.Background()

	_, err := s.Set(ctx, clinicianC1, "users/u1", map[string]any{"points": 5, "firstName": "Ann"})
	require.NoError(t, err)

	// Rewriting the record with the same points is fine.
	_, err = s.CompareAndSet(ctx, patientU1, "users/u1", map[string]any{"points": 5, "firstName": "Anna"}, 1)
	require.NoError(t, err)

	// A full write that drops points would zero them.
	_, err = s.Set(ctx, patientU1, "users/u1", map[string]any{"firstName": "Anna"})
	require.ErrorIs(t, err, common.ErrForbidden)

	_, err = s.Update(ctx, patientU1, "users/u1", map[string]any{"points": 0})
	require.ErrorIs(t, err, common.ErrForbidden)

	// Clinicians adjust points freely.
	_, err = s.Update(ctx, clinicianC1, "users/u1", map[string]any{"points": 0})
	require.NoError(t, err)
}
