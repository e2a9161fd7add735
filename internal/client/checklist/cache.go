// Package checklist keeps the per-day "consumed" checklist of a diet's meals.
//
// State lives in memory and is persisted to the local key-value store under
// "{dietId}-{meal}" on every toggle. The day a snapshot was written is kept
// next to it under "{dietId}-{meal}.day"; a snapshot from another day is a
// cache miss.
package checklist

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/dmitrijs2005/dmoclinic/internal/client/localstore"
	"github.com/dmitrijs2005/dmoclinic/internal/client/models"
	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/logging"
	"github.com/dmitrijs2005/dmoclinic/internal/timex"
)

// DefaultInterval is the rollover check period used by Watch.
const DefaultInterval = 60 * time.Second

// ErrDayChanged is returned by Toggle when the loaded checklist belongs to a
// previous day. The meal has to be loaded again.
var ErrDayChanged = fmt.Errorf("checklist day changed: %w", common.ErrorNotFound)

// State maps item name to "consumed today".
type State map[string]bool

// Key is the local storage key of a meal's snapshot.
func Key(dietID string, meal models.Meal) string {
	return dietID + "-" + string(meal)
}

func dayKey(key string) string {
	return key + ".day"
}

type Cache struct {
	repo      localstore.Repository
	clock     timex.Clock
	loc       *time.Location
	logger    logging.Logger
	reconcile bool

	mu        sync.Mutex
	meals     map[string]State
	lastCheck time.Time
}

type Option func(*Cache)

// WithReconcile makes Load align a same-day snapshot with the current item
// list: items no longer in the diet are dropped, new ones start unchecked.
func WithReconcile() Option {
	return func(c *Cache) { c.reconcile = true }
}

// WithLocation sets the time zone that defines a calendar day.
func WithLocation(loc *time.Location) Option {
	return func(c *Cache) { c.loc = loc }
}

func New(repo localstore.Repository, clock timex.Clock, logger logging.Logger, opts ...Option) *Cache {
	c := &Cache{
		repo:   repo,
		clock:  clock,
		loc:    time.Local,
		logger: logger.With("module", "checklist"),
		meals:  map[string]State{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lastCheck = clock.Now()
	return c
}

// Load returns the checklist of a meal. A snapshot written today wins as is;
// otherwise every item starts unchecked and nothing is persisted until the
// first Toggle. A meal without items is hidden and yields nil. Checklists of
// a previous day are dropped before loading.
func (c *Cache) Load(ctx context.Context, dietID string, meal models.Meal, items []string) (State, error) {
	if !meal.Valid() {
		return nil, fmt.Errorf("%w: meal %q", common.ErrInvalidInput, meal)
	}
	key := Key(dietID, meal)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.rollover(ctx, c.clock.Now())

	if len(items) == 0 {
		delete(c.meals, key)
		return nil, nil
	}

	cached, err := c.readSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}

	var state State
	switch {
	case cached == nil:
		state = fresh(items)
	case c.reconcile:
		state = reconcile(cached, items)
	default:
		state = cached
	}

	c.meals[key] = state
	return maps.Clone(state), nil
}

// readSnapshot returns today's snapshot of key, or nil on a miss. A blob
// that does not decode is reported and treated as a miss.
func (c *Cache) readSnapshot(ctx context.Context, key string) (State, error) {
	day, err := c.repo.Get(ctx, dayKey(key))
	if err != nil {
		return nil, fmt.Errorf("load checklist: %w", err)
	}
	if string(day) != timex.Day(c.clock.Now(), c.loc) {
		return nil, nil
	}

	blob, err := c.repo.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load checklist: %w", err)
	}
	if blob == nil {
		return nil, nil
	}

	var state State
	if err := json.Unmarshal(blob, &state); err != nil || state == nil {
		c.logger.Warn(ctx, "discarding checklist snapshot", "key", key,
			"error", fmt.Errorf("%w: %v", common.ErrLocalStorageCorrupt, err))
		c.discard(ctx, key)
		return nil, nil
	}
	return state, nil
}

func (c *Cache) discard(ctx context.Context, key string) {
	for _, k := range []string{key, dayKey(key)} {
		if err := c.repo.Delete(ctx, k); err != nil {
			c.logger.Warn(ctx, "delete checklist snapshot", "key", k, "error", err)
		}
	}
}

func fresh(items []string) State {
	s := make(State, len(items))
	for _, item := range items {
		s[item] = false
	}
	return s
}

func reconcile(cached State, items []string) State {
	s := make(State, len(items))
	for _, item := range items {
		s[item] = cached[item]
	}
	return s
}

// Toggle flips an item of a loaded meal and persists the whole meal. If the
// day changed since the meal was loaded the checklists are cleared and
// ErrDayChanged is returned.
func (c *Cache) Toggle(ctx context.Context, dietID string, meal models.Meal, item string) (State, error) {
	key := Key(dietID, meal)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.rollover(ctx, now) {
		return nil, fmt.Errorf("checklist %s: %w", key, ErrDayChanged)
	}

	state, ok := c.meals[key]
	if !ok {
		return nil, fmt.Errorf("checklist %s not loaded: %w", key, common.ErrorNotFound)
	}
	checked, ok := state[item]
	if !ok {
		return nil, fmt.Errorf("item %q in %s: %w", item, key, common.ErrorNotFound)
	}

	state[item] = !checked
	blob, err := json.Marshal(state)
	if err == nil {
		err = c.repo.SetMany(ctx, map[string][]byte{
			key:         blob,
			dayKey(key): []byte(timex.Day(now, c.loc)),
		})
	}
	if err != nil {
		state[item] = checked
		return nil, fmt.Errorf("save checklist: %w", err)
	}

	return maps.Clone(state), nil
}

// Get returns the in-memory checklist of a meal.
func (c *Cache) Get(dietID string, meal models.Meal) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.meals[Key(dietID, meal)]
	return maps.Clone(s), ok
}

// RolloverCheck reports whether now falls on a different calendar day than
// the previous check. If so the in-memory checklists are cleared and the
// caller should load every meal again. Local storage is left as is.
func (c *Cache) RolloverCheck(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rollover(context.Background(), now)
}

// rollover must be called with mu held.
func (c *Cache) rollover(ctx context.Context, now time.Time) bool {
	if timex.SameDay(now, c.lastCheck, c.loc) {
		return false
	}

	c.logger.Info(ctx, "day rollover",
		"from", timex.Day(c.lastCheck, c.loc), "to", timex.Day(now, c.loc))
	clear(c.meals)
	c.lastCheck = now
	return true
}

// Reset unchecks everything: loaded checklists are dropped and every
// snapshot is removed from local storage.
func (c *Cache) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.repo.Clear(ctx); err != nil {
		return fmt.Errorf("reset checklist: %w", err)
	}
	clear(c.meals)
	return nil
}

// Watch runs RolloverCheck every interval until ctx is done and calls
// onRollover after each detected rollover.
func (c *Cache) Watch(ctx context.Context, interval time.Duration, onRollover func(context.Context)) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.RolloverCheck(c.clock.Now()) && onRollover != nil {
				onRollover(ctx)
			}
		}
	}
}

// DietChecklist is the loaded checklist of a whole diet. Hidden meals are
// absent.
type DietChecklist map[models.Meal]State

// LoadDiet loads every meal of d.
func (c *Cache) LoadDiet(ctx context.Context, d *models.Diet) (DietChecklist, error) {
	out := DietChecklist{}
	for _, meal := range models.Meals {
		state, err := c.Load(ctx, d.ID, meal, d.ItemsFor(meal))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", meal, err)
		}
		if state != nil {
			out[meal] = state
		}
	}
	return out, nil
}
