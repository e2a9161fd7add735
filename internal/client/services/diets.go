package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dmoclinic/internal/client/models"
	"github.com/dmitrijs2005/dmoclinic/internal/client/validate"
	"github.com/dmitrijs2005/dmoclinic/internal/logging"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
)

// DietService creates and reads diets. Diets are written by clinicians only.
type DietService interface {
	Create(ctx context.Context, d *models.Diet) (string, error)
	Get(ctx context.Context, id string) (*models.Diet, error)
	List(ctx context.Context) ([]*models.Diet, error)
}

type dietService struct {
	store  store.Store
	logger logging.Logger
}

func NewDietService(s store.Store, logger logging.Logger) DietService {
	return &dietService{store: s, logger: logger.With("module", "diets")}
}

// Create stores d under a new id. Blank items are dropped.
func (s *dietService) Create(ctx context.Context, d *models.Diet) (string, error) {
	if err := validate.Name(d.Name); err != nil {
		return "", fmt.Errorf("diet name: %w", err)
	}

	clean := &models.Diet{Name: strings.TrimSpace(d.Name), Items: map[models.Meal][]string{}}
	for _, meal := range models.Meals {
		for _, item := range d.ItemsFor(meal) {
			if item = strings.TrimSpace(item); item != "" {
				clean.Items[meal] = append(clean.Items[meal], item)
			}
		}
	}

	id, err := s.store.Push(ctx, models.DietsCollection, clean.Fields())
	if err != nil {
		return "", fmt.Errorf("create diet: %w", err)
	}

	s.logger.Info(ctx, "diet created", "diet", id, "name", clean.Name)
	return id, nil
}

func (s *dietService) Get(ctx context.Context, id string) (*models.Diet, error) {
	doc, err := s.store.Get(ctx, models.DietPath(id))
	if err != nil {
		return nil, fmt.Errorf("get diet: %w", err)
	}
	return models.DietFromDocument(doc), nil
}

func (s *dietService) List(ctx context.Context) ([]*models.Diet, error) {
	docs, err := s.store.List(ctx, models.DietsCollection)
	if err != nil {
		return nil, fmt.Errorf("list diets: %w", err)
	}
	out := make([]*models.Diet, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.DietFromDocument(d))
	}
	return out, nil
}
