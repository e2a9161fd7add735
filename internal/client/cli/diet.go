package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrijs2005/dmoclinic/internal/client/checklist"
	"github.com/dmitrijs2005/dmoclinic/internal/client/models"
)

// showDiet prints a diet. Without arguments it opens the caller's own diet
// as today's checklist and keeps the rollover watcher running.
func (a *App) showDiet(ctx context.Context, args []string) error {
	if len(args) > 0 {
		d, err := a.diets.Get(ctx, args[0])
		if err != nil {
			return err
		}
		a.printDiet(d)
		return nil
	}

	u, err := a.accounts.Get(ctx, a.identity.UserID)
	if err != nil {
		return err
	}
	if u.Diet == "" {
		fmt.Fprintln(a.out, "No diet assigned")
		return nil
	}
	d, err := a.diets.Get(ctx, u.Diet)
	if err != nil {
		return err
	}

	a.checklist.RolloverCheck(a.clock.Now())
	list, err := a.checklist.LoadDiet(ctx, d)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.activeDiet = d
	a.mu.Unlock()
	a.startRolloverWatcher(ctx)

	fmt.Fprintf(a.out, "%s (today)\n", d.Name)
	a.printChecklist(list)
	return nil
}

func (a *App) check(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("check <meal> <item>")
	}
	a.mu.Lock()
	d := a.activeDiet
	a.mu.Unlock()
	if d == nil {
		return fmt.Errorf("open your diet first")
	}

	meal := models.Meal(strings.ToLower(args[0]))
	item := strings.Join(args[1:], " ")
	state, err := a.checklist.Toggle(ctx, d.ID, meal, item)
	if errors.Is(err, checklist.ErrDayChanged) {
		fmt.Fprintln(a.out, "A new day has started, checklist reset")
		a.reloadDiet(ctx)
		a.mu.Lock()
		d = a.activeDiet
		a.mu.Unlock()
		state, err = a.checklist.Toggle(ctx, d.ID, meal, item)
	}
	if err != nil {
		return err
	}
	a.printChecklist(checklist.DietChecklist{meal: state})
	return nil
}

// resetChecklist unchecks every item and forgets the saved checklists.
func (a *App) resetChecklist(ctx context.Context, _ []string) error {
	if err := a.checklist.Reset(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	d := a.activeDiet
	a.mu.Unlock()

	fmt.Fprintln(a.out, "Checklist cleared")
	if d == nil {
		return nil
	}
	list, err := a.checklist.LoadDiet(ctx, d)
	if err != nil {
		return err
	}
	a.printChecklist(list)
	return nil
}

func (a *App) printDiet(d *models.Diet) {
	fmt.Fprintf(a.out, "%s [%s]\n", d.Name, d.ID)
	for _, meal := range models.Meals {
		if items := d.ItemsFor(meal); len(items) > 0 {
			fmt.Fprintf(a.out, "  %s: %s\n", meal, strings.Join(items, ", "))
		}
	}
}

func (a *App) printChecklist(list checklist.DietChecklist) {
	for _, meal := range models.Meals {
		state, ok := list[meal]
		if !ok {
			continue
		}
		fmt.Fprintln(a.out, meal)
		for _, item := range slices.Sorted(maps.Keys(state)) {
			mark := " "
			if state[item] {
				mark = "x"
			}
			fmt.Fprintf(a.out, "  [%s] %s\n", mark, item)
		}
	}
}

func (a *App) startRolloverWatcher(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopWatcher != nil {
		return
	}

	wctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.stopWatcher = cancel
	a.watcherDone = done

	go func() {
		defer close(done)
		a.checklist.Watch(wctx, a.config.RolloverCheckInterval, a.reloadDiet)
	}()
}

func (a *App) stopRolloverWatcher() {
	a.mu.Lock()
	cancel, done := a.stopWatcher, a.watcherDone
	a.stopWatcher, a.watcherDone = nil, nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// reloadDiet fetches the active diet again after a day rollover.
func (a *App) reloadDiet(ctx context.Context) {
	a.mu.Lock()
	d := a.activeDiet
	a.mu.Unlock()
	if d == nil {
		return
	}

	fresh, err := a.diets.Get(ctx, d.ID)
	if err != nil {
		a.logger.Warn(ctx, "reload diet after rollover", "diet", d.ID, "error", err)
		return
	}
	if _, err := a.checklist.LoadDiet(ctx, fresh); err != nil {
		a.logger.Warn(ctx, "reload checklist after rollover", "diet", d.ID, "error", err)
		return
	}

	a.mu.Lock()
	a.activeDiet = fresh
	a.mu.Unlock()
	a.logger.Info(ctx, "checklist reset for the new day", "diet", d.ID)
}

func (a *App) listDiets(ctx context.Context, _ []string) error {
	diets, err := a.diets.List(ctx)
	if err != nil {
		return err
	}
	if len(diets) == 0 {
		fmt.Fprintln(a.out, "No diets")
	}
	for _, d := range diets {
		fmt.Fprintf(a.out, "%s  %s\n", d.ID, d.Name)
	}
	return nil
}

func (a *App) newDiet(ctx context.Context, _ []string) error {
	name, err := getSimpleText(a.reader, "Enter diet name", a.out)
	if err != nil {
		return err
	}
	d := &models.Diet{Name: name, Items: map[models.Meal][]string{}}
	for _, meal := range models.Meals {
		line, err := getSimpleText(a.reader, fmt.Sprintf("Enter %s items (comma-separated, empty for none)", meal), a.out)
		if err != nil {
			return err
		}
		if line != "" {
			d.Items[meal] = strings.Split(line, ",")
		}
	}

	id, err := a.diets.Create(ctx, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Diet created: %s\n", id)
	return nil
}

func (a *App) assignDiet(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("assign <user id> <diet id>")
	}
	if err := a.accounts.AssignDiet(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Diet assigned")
	return nil
}
