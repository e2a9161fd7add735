package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/dmoclinic/internal/client/models"
	"github.com/dmitrijs2005/dmoclinic/internal/common"
)

func (a *App) listPatients(ctx context.Context, _ []string) error {
	patients, err := a.accounts.ListPatients(ctx)
	if err != nil {
		return err
	}
	if len(patients) == 0 {
		fmt.Fprintln(a.out, "No patients")
	}
	for _, u := range patients {
		weight := "-"
		if w, ok := u.LatestWeight(); ok {
			weight = strconv.FormatFloat(w, 'g', -1, 64) + " kg"
		}
		fmt.Fprintf(a.out, "%s  %s  %s  %d points\n", u.ID, u.FullName(), weight, u.Points)
	}
	return nil
}

func (a *App) setMilestone(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return usageError("milestone <user id> <kg> <points>")
	}
	w, err := parseNumber(args[1])
	if err != nil {
		return err
	}
	p, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a whole number", common.ErrInvalidInput, args[2])
	}

	if err := a.engine.SetMilestone(ctx, args[0], w, p); err != nil {
		return err
	}
	if w <= 0 || p <= 0 {
		fmt.Fprintln(a.out, "Ignored: weight and points must be positive")
		return nil
	}
	fmt.Fprintf(a.out, "Milestone set: %g kg for %d points\n", w, p)
	return nil
}

func (a *App) adjustPoints(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("points <user id> <delta>")
	}
	delta, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a whole number", common.ErrInvalidInput, args[1])
	}

	points, err := a.engine.AdjustPoints(ctx, args[0], delta)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Points: %d\n", points)
	return nil
}

func (a *App) setTarget(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("target <user id> <kg|->")
	}
	value := args[1]
	if value == "-" {
		value = ""
	}
	if err := a.accounts.SetTargetWeight(ctx, args[0], value); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Target updated")
	return nil
}

func (a *App) showHours(ctx context.Context, _ []string) error {
	hours, err := a.schedule.Get(ctx)
	if err != nil {
		return err
	}
	if len(hours) == 0 {
		fmt.Fprintln(a.out, "No working hours set")
	}
	for _, h := range hours {
		fmt.Fprintf(a.out, "%-9s %s-%s\n", h.Day, h.Hours.Start, h.Hours.End)
	}
	return nil
}

// setHours replaces the schedule, e.g. "sethours mon=09:00-17:00 wed=12:00-20:00".
func (a *App) setHours(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("sethours <day>=<HH:mm>-<HH:mm> ...")
	}

	hours := make(map[time.Weekday]models.Hours, len(args))
	for _, arg := range args {
		dayStr, span, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("%w: %q is not day=start-end", common.ErrInvalidInput, arg)
		}
		day, err := models.ParseWeekday(dayStr)
		if err != nil {
			return err
		}
		start, end, ok := strings.Cut(span, "-")
		if !ok {
			return fmt.Errorf("%w: %q is not start-end", common.ErrInvalidInput, span)
		}
		hours[day] = models.Hours{Start: start, End: end}
	}

	if err := a.schedule.Save(ctx, hours); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Working hours saved")
	return nil
}
