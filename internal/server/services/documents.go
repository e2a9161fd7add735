package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/dmoclinic/internal/authx"
	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/logging"
	"github.com/dmitrijs2005/dmoclinic/internal/server/repositories/documents"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
)

// DocumentService applies the access policy in front of a document
// repository.
type DocumentService struct {
	repo   documents.Repository
	policy *Policy
	logger logging.Logger

	// mu serialises patient milestone and points writes.
	mu sync.Mutex
	// pending holds awards claimed by a milestone disarm and not paid yet.
	pending map[string]int64
}

func NewDocumentService(repo documents.Repository, policy *Policy, logger logging.Logger) *DocumentService {
	return &DocumentService{
		repo:    repo,
		policy:  policy,
		logger:  logger.With("module", "document_service"),
		pending: map[string]int64{},
	}
}

func (s *DocumentService) Get(ctx context.Context, id authx.Identity, path string) (*store.Document, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, path)
}

func (s *DocumentService) List(ctx context.Context, id authx.Identity, parent string) ([]*store.Document, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, parent)
}

func (s *DocumentService) Set(ctx context.Context, id authx.Identity, path string, fields map[string]any) (int64, error) {
	return s.write(ctx, id, path, fields, false, func() (int64, error) {
		return s.repo.Set(ctx, path, fields)
	})
}

func (s *DocumentService) Update(ctx context.Context, id authx.Identity, path string, fields map[string]any) (int64, error) {
	return s.write(ctx, id, path, fields, true, func() (int64, error) {
		return s.repo.Update(ctx, path, fields)
	})
}

func (s *DocumentService) CompareAndSet(ctx context.Context, id authx.Identity, path string, fields map[string]any, version int64) (int64, error) {
	return s.write(ctx, id, path, fields, false, func() (int64, error) {
		return s.repo.CompareAndSet(ctx, path, fields, version)
	})
}

// write checks a write and runs do. partial is true when fields are merged
// into the stored document instead of replacing it.
func (s *DocumentService) write(ctx context.Context, id authx.Identity, path string, fields map[string]any, partial bool, do func() (int64, error)) (int64, error) {
	if err := s.checkWrite(ctx, id, path, fields); err != nil {
		return 0, err
	}
	if id.IsClinician() {
		return do()
	}

	collection, _, _ := strings.Cut(path, "/")
	switch collection {
	case CollectionMilestones:
		return s.writeMilestone(ctx, id, do)
	case CollectionUsers:
		if _, ok := fields[fieldPoints]; ok || !partial {
			return s.writePoints(ctx, id, path, fields, do)
		}
	}
	return do()
}

// writeMilestone lets a patient disarm an armed milestone only once the last
// logged weight is at or below its threshold. The award becomes payable.
func (s *DocumentService) writeMilestone(ctx context.Context, id authx.Identity, do func() (int64, error)) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	award, err := s.claimableAward(ctx, id.UserID)
	if err != nil {
		s.logger.Warn(ctx, "milestone claim rejected", "user", id.UserID, "error", err)
		return 0, err
	}

	v, err := do()
	if err != nil {
		return 0, err
	}
	if award > 0 {
		s.pending[id.UserID] += award
		s.logger.Info(ctx, "milestone claimed", "user", id.UserID, "award", award)
	}
	return v, nil
}

func (s *DocumentService) claimableAward(ctx context.Context, userID string) (int64, error) {
	m, err := s.getFields(ctx, store.Join(CollectionMilestones, userID))
	if err != nil {
		return 0, err
	}
	threshold, _ := store.Float(m, fieldMilestoneWeight)
	if threshold <= 0 {
		return 0, nil
	}

	u, err := s.getFields(ctx, store.Join(CollectionUsers, userID))
	if err != nil {
		return 0, err
	}
	weights := store.Floats(u, fieldWeightProgress)
	if len(weights) == 0 || weights[len(weights)-1] > threshold {
		return 0, fmt.Errorf("%w: milestone threshold not reached", common.ErrForbidden)
	}
	return store.Int(m, fieldMilestoneAward), nil
}

// writePoints lets a patient keep their points or add exactly the awards
// claimed so far.
func (s *DocumentService) writePoints(ctx context.Context, id authx.Identity, path string, fields map[string]any, do func() (int64, error)) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getFields(ctx, path)
	if err != nil {
		return 0, err
	}
	cur, next := store.Int(current, fieldPoints), store.Int(fields, fieldPoints)
	award := s.pending[id.UserID]

	switch {
	case next == cur:
		return do()
	case award > 0 && next == cur+award:
	default:
		s.logger.Warn(ctx, "points change rejected", "user", id.UserID, "from", cur, "to", next)
		return 0, fmt.Errorf("%w: points may only grow by a claimed award", common.ErrForbidden)
	}

	v, err := do()
	if err != nil {
		return 0, err
	}
	delete(s.pending, id.UserID)
	return v, nil
}

// getFields reads a document. A missing document yields nil fields.
func (s *DocumentService) getFields(ctx context.Context, path string) (map[string]any, error) {
	doc, err := s.repo.Get(ctx, path)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.Fields, nil
}

func (s *DocumentService) Push(ctx context.Context, id authx.Identity, parent string, fields map[string]any) (string, error) {
	if err := requireIdentity(id); err != nil {
		return "", err
	}
	if err := store.ValidatePath(parent); err != nil {
		return "", err
	}
	if err := s.policy.CanPush(id, parent, fields); err != nil {
		s.logger.Warn(ctx, "push rejected", "user", id.UserID, "parent", parent)
		return "", err
	}
	return s.repo.Push(ctx, parent, fields)
}

// Dump returns every stored document. It is used by the snapshot exporter and
// bypasses the policy.
func (s *DocumentService) Dump(ctx context.Context) ([]*store.Document, error) {
	return s.repo.Dump(ctx)
}

func (s *DocumentService) checkWrite(ctx context.Context, id authx.Identity, path string, fields map[string]any) error {
	if err := requireIdentity(id); err != nil {
		return err
	}
	if err := store.ValidatePath(path); err != nil {
		return err
	}
	if err := s.policy.CanWrite(id, path, fields); err != nil {
		s.logger.Warn(ctx, "write rejected", "user", id.UserID, "path", path)
		return err
	}
	return nil
}

func requireIdentity(id authx.Identity) error {
	if id.UserID == "" {
		return fmt.Errorf("%w: no caller identity", common.ErrorUnauthorized)
	}
	return nil
}
