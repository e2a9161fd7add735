package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dmoclinic/internal/client/models"
	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
)

// ScheduleService reads and replaces the clinic's working hours.
type ScheduleService interface {
	Save(ctx context.Context, hours map[time.Weekday]models.Hours) error
	Get(ctx context.Context) ([]models.DayHours, error)
}

type scheduleService struct {
	store store.Store
}

func NewScheduleService(s store.Store) ScheduleService {
	return &scheduleService{store: s}
}

// Save overwrites the whole schedule. Days missing from hours are closed.
func (s *scheduleService) Save(ctx context.Context, hours map[time.Weekday]models.Hours) error {
	for day, h := range hours {
		if err := h.Validate(); err != nil {
			return fmt.Errorf("%s: %w", day, err)
		}
	}
	if _, err := s.store.Set(ctx, models.WorkingHoursPath, models.WorkingHoursFields(hours)); err != nil {
		return fmt.Errorf("save working hours: %w", err)
	}
	return nil
}

// Get returns the open days, Monday first. No schedule yields nil.
func (s *scheduleService) Get(ctx context.Context) ([]models.DayHours, error) {
	doc, err := s.store.Get(ctx, models.WorkingHoursPath)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get working hours: %w", err)
	}
	return models.WorkingHoursFromFields(doc.Fields), nil
}
