// Package services contains the client's application services. Each one
// maps clinic operations onto documents of the remote store.
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/dmoclinic/internal/client/models"
	"github.com/dmitrijs2005/dmoclinic/internal/client/validate"
	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/logging"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
)

// AccountService manages users/{id} records.
//
// Contract:
//   - CreateAccount: validate the sign-up form and create the user together
//     with a disarmed milestone. The role is fixed here and never changes.
//   - Get: read one account.
//   - ListPatients: every account that is not a clinician.
//   - SetTargetWeight: a positive number, or "" to unset.
//   - AssignDiet: point the account at an existing diet.
type AccountService interface {
	CreateAccount(ctx context.Context, userID string, form validate.SignupForm) (*models.UserAccount, error)
	Get(ctx context.Context, userID string) (*models.UserAccount, error)
	ListPatients(ctx context.Context) ([]*models.UserAccount, error)
	SetTargetWeight(ctx context.Context, userID, value string) error
	AssignDiet(ctx context.Context, userID, dietID string) error
}

type accountService struct {
	store           store.Store
	clinicianEmails []string
	logger          logging.Logger
}

// NewAccountService builds an AccountService. Accounts whose email is in
// clinicianEmails are created as clinicians.
func NewAccountService(s store.Store, clinicianEmails []string, logger logging.Logger) AccountService {
	return &accountService{store: s, clinicianEmails: clinicianEmails, logger: logger.With("module", "accounts")}
}

func (s *accountService) isClinician(email string) bool {
	for _, e := range s.clinicianEmails {
		if strings.EqualFold(strings.TrimSpace(e), email) {
			return true
		}
	}
	return false
}

func (s *accountService) CreateAccount(ctx context.Context, userID string, form validate.SignupForm) (*models.UserAccount, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: empty user id", common.ErrInvalidInput)
	}
	if err := validate.Form(form); err != nil {
		return nil, err
	}

	u := &models.UserAccount{
		ID:          userID,
		FirstName:   strings.TrimSpace(form.FirstName),
		LastName:    strings.TrimSpace(form.LastName),
		Email:       strings.ToLower(form.Email),
		PhoneNumber: form.PhoneNumber,
		IsDoctor:    s.isClinician(form.Email),
	}

	// The milestone goes first so a failed signup can simply be retried.
	// An existing milestone is left as it is.
	_, err := s.store.CompareAndSet(ctx, models.MilestonePath(userID), models.Disarmed.Fields(), 0)
	if err != nil && !errors.Is(err, common.ErrVersionConflict) {
		return nil, fmt.Errorf("create milestone: %w", err)
	}

	if _, err := s.store.CompareAndSet(ctx, models.UserPath(userID), u.Fields(), 0); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return nil, fmt.Errorf("account %s already exists: %w", userID, err)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info(ctx, "account created", "user", userID, "role", u.Role())
	return u, nil
}

func (s *accountService) Get(ctx context.Context, userID string) (*models.UserAccount, error) {
	doc, err := s.store.Get(ctx, models.UserPath(userID))
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return models.UserFromDocument(doc), nil
}

func (s *accountService) ListPatients(ctx context.Context) ([]*models.UserAccount, error) {
	docs, err := s.store.List(ctx, models.UsersCollection)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	var out []*models.UserAccount
	for _, d := range docs {
		if u := models.UserFromDocument(d); !u.IsDoctor {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *accountService) SetTargetWeight(ctx context.Context, userID, value string) error {
	value = strings.TrimSpace(value)
	if value != "" {
		w, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			return fmt.Errorf("%w: target weight %q", common.ErrInvalidInput, value)
		}
	}
	return s.updateExisting(ctx, userID, models.FieldTargetWeight, value)
}

func (s *accountService) AssignDiet(ctx context.Context, userID, dietID string) error {
	if _, err := s.store.Get(ctx, models.DietPath(dietID)); err != nil {
		return fmt.Errorf("diet %s: %w", dietID, err)
	}
	return s.updateExisting(ctx, userID, models.FieldDiet, dietID)
}

// updateExisting sets one field of an existing account.
func (s *accountService) updateExisting(ctx context.Context, userID, field string, value any) error {
	_, err := store.Modify(ctx, s.store, models.UserPath(userID), store.DefaultAttempts, func(f map[string]any) (map[string]any, error) {
		if f == nil {
			return nil, fmt.Errorf("user %s: %w", userID, common.ErrorNotFound)
		}
		f[field] = value
		return f, nil
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", field, err)
	}
	return nil
}
