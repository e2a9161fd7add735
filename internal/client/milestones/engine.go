// Package milestones awards points once when a patient's logged weight
// reaches the threshold a clinician armed, then disarms the milestone.
//
// Every read-modify-write goes through store.Modify, so concurrent weight
// logs never drop samples and a milestone pays out at most once: the disarm
// is claimed with a compare-and-set before the points are credited.
package milestones

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/dmitrijs2005/dmoclinic/internal/client/models"
	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/logging"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
)

type Engine struct {
	store    store.Store
	logger   logging.Logger
	attempts int
}

func NewEngine(s store.Store, logger logging.Logger) *Engine {
	return &Engine{store: s, logger: logger.With("module", "milestones"), attempts: store.DefaultAttempts}
}

// Outcome describes what RecordWeight did.
type Outcome struct {
	// Awarded is the payout credited by this call, 0 if none.
	Awarded int64
	// Points is the balance after the payout; only set when Awarded > 0.
	Points int64
	// Milestone is the milestone as evaluated, before any disarm.
	Milestone models.Milestone
}

func validNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SetMilestone arms the user's milestone. A threshold or award that is not
// positive is silently ignored so this call can never disarm a milestone.
func (e *Engine) SetMilestone(ctx context.Context, userID string, thresholdWeight float64, awardPoints int64) error {
	if !validNumber(thresholdWeight) {
		return fmt.Errorf("%w: threshold weight %v", common.ErrInvalidInput, thresholdWeight)
	}
	if thresholdWeight <= 0 || awardPoints <= 0 {
		e.logger.Debug(ctx, "milestone not armed", "user", userID, "threshold", thresholdWeight, "award", awardPoints)
		return nil
	}

	m := models.Milestone{ThresholdWeight: thresholdWeight, AwardPoints: awardPoints}
	if _, err := e.store.Set(ctx, models.MilestonePath(userID), m.Fields()); err != nil {
		return fmt.Errorf("set milestone: %w", err)
	}

	e.logger.Info(ctx, "milestone armed", "user", userID, "threshold", thresholdWeight, "award", awardPoints)
	return nil
}

// Milestone returns the user's current milestone. A missing record reads as
// disarmed.
func (e *Engine) Milestone(ctx context.Context, userID string) (models.Milestone, error) {
	doc, err := e.store.Get(ctx, models.MilestonePath(userID))
	if errors.Is(err, common.ErrorNotFound) {
		return models.Disarmed, nil
	}
	if err != nil {
		return models.Milestone{}, fmt.Errorf("get milestone: %w", err)
	}
	return models.MilestoneFromFields(doc.Fields), nil
}

// RecordWeight appends newWeight to the user's weight history and then
// evaluates the milestone. Weights that are not finite positive numbers are
// rejected before any store call.
func (e *Engine) RecordWeight(ctx context.Context, userID string, newWeight float64) (Outcome, error) {
	if !validNumber(newWeight) || newWeight <= 0 {
		return Outcome{}, fmt.Errorf("%w: weight %v", common.ErrInvalidInput, newWeight)
	}

	_, err := store.Modify(ctx, e.store, models.UserPath(userID), e.attempts, func(f map[string]any) (map[string]any, error) {
		if f == nil {
			return nil, fmt.Errorf("user %s: %w", userID, common.ErrorNotFound)
		}
		f[models.FieldWeightProgress] = append(store.Floats(f, models.FieldWeightProgress), newWeight)
		return f, nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("append weight: %w", err)
	}

	var out Outcome
	_, err = store.Modify(ctx, e.store, models.MilestonePath(userID), e.attempts, func(f map[string]any) (map[string]any, error) {
		out = Outcome{Milestone: models.MilestoneFromFields(f)}
		if !out.Milestone.Armed() || newWeight > out.Milestone.ThresholdWeight {
			return nil, store.ErrNoChange
		}
		out.Awarded = out.Milestone.AwardPoints
		return models.Disarmed.Fields(), nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("evaluate milestone: %w", err)
	}

	if out.Awarded == 0 {
		return out, nil
	}

	points, err := e.AdjustPoints(ctx, userID, out.Awarded)
	if err != nil {
		e.logger.Error(ctx, "milestone disarmed but payout failed", "user", userID, "award", out.Awarded, "error", err)
		return out, fmt.Errorf("milestone payout: %w", err)
	}
	out.Points = points

	e.logger.Info(ctx, "milestone fired", "user", userID, "weight", newWeight,
		"threshold", out.Milestone.ThresholdWeight, "award", out.Awarded, "points", points)
	return out, nil
}

// AdjustPoints adds delta to the user's points, clamping the result at 0,
// and returns the new balance.
func (e *Engine) AdjustPoints(ctx context.Context, userID string, delta int64) (int64, error) {
	var next int64
	_, err := store.Modify(ctx, e.store, models.UserPath(userID), e.attempts, func(f map[string]any) (map[string]any, error) {
		if f == nil {
			return nil, fmt.Errorf("user %s: %w", userID, common.ErrorNotFound)
		}
		current := store.Int(f, models.FieldPoints)
		next = max(0, current+delta)
		if next == current {
			return nil, store.ErrNoChange
		}
		f[models.FieldPoints] = next
		return f, nil
	})
	if err != nil {
		return 0, fmt.Errorf("adjust points: %w", err)
	}
	return next, nil
}
