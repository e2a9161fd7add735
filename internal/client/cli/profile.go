package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/dmoclinic/internal/client/validate"
	"github.com/dmitrijs2005/dmoclinic/internal/common"
)

// register creates the account of the token's user.
func (a *App) register(ctx context.Context, _ []string) error {
	var form validate.SignupForm
	var err error

	prompts := []struct {
		label string
		dst   *string
	}{
		{"Enter first name", &form.FirstName},
		{"Enter last name", &form.LastName},
		{"Enter email", &form.Email},
		{"Enter phone number", &form.PhoneNumber},
	}
	for _, p := range prompts {
		if *p.dst, err = getSimpleText(a.reader, p.label, a.out); err != nil {
			return err
		}
	}
	if form.Password, err = getSecret("Enter password", a.out); err != nil {
		return err
	}

	u, err := a.accounts.CreateAccount(ctx, a.identity.UserID, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account created for %s (%s)\n", u.FullName(), u.Role())
	return nil
}

func (a *App) profile(ctx context.Context, args []string) error {
	id := a.identity.UserID
	if len(args) > 0 && a.identity.IsClinician() {
		id = args[0]
	}

	u, err := a.accounts.Get(ctx, id)
	if err != nil {
		return err
	}
	m, err := a.engine.Milestone(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s (%s)\n", u.FullName(), u.Role())
	if u.IsDoctor {
		return nil
	}
	fmt.Fprintf(a.out, "Points: %d\n", u.Points)
	if w, ok := u.LatestWeight(); ok {
		fmt.Fprintf(a.out, "Weight: %g kg (%d entries)\n", w, len(u.WeightProgress))
	} else {
		fmt.Fprintln(a.out, "Weight: no entries")
	}
	if t, ok := u.Target(); ok {
		fmt.Fprintf(a.out, "Target: %g kg\n", t)
	} else {
		fmt.Fprintln(a.out, "Target: not set")
	}
	if u.Diet != "" {
		fmt.Fprintf(a.out, "Diet: %s\n", u.Diet)
	} else {
		fmt.Fprintln(a.out, "Diet: none")
	}
	if m.Armed() {
		fmt.Fprintf(a.out, "Milestone: %g kg for %d points\n", m.ThresholdWeight, m.AwardPoints)
	} else {
		fmt.Fprintln(a.out, "Milestone: none")
	}
	return nil
}

func (a *App) recordWeight(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("weight <kg>")
	}
	w, err := parseNumber(args[0])
	if err != nil {
		return err
	}

	out, err := a.engine.RecordWeight(ctx, a.identity.UserID, w)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged %g kg\n", w)
	if out.Awarded > 0 {
		fmt.Fprintf(a.out, "Milestone reached! +%d points (total %d)\n", out.Awarded, out.Points)
	}
	return nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", common.ErrInvalidInput, s)
	}
	return v, nil
}
