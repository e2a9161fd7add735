package services

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dmoclinic/internal/authx"
	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
)

// Top-level collections of the clinic document tree.
const (
	CollectionUsers        = "users"
	CollectionMilestones   = "milestones"
	CollectionDiets        = "diets"
	CollectionChats        = "chats"
	DocumentWorkingHours   = "workingHours"
	fieldIsDoctor          = "isDoctor"
	fieldEmail             = "email"
	fieldMilestoneWeight   = "milestoneWeight"
	fieldMilestoneAward    = "awardPoints"
	fieldPoints            = "points"
	fieldWeightProgress    = "weightProgress"
	pushPlaceholderSegment = "_"
)

// Policy decides which writes an authenticated caller may perform.
// Every authenticated caller may read.
//
// Clinicians may write anything. Patients may write their own users record,
// anything under chats, and their own milestones record only when the write
// disarms it. Nobody may store isDoctor=true for an email that is not a
// configured clinician email.
//
// Policy only looks at the write itself. DocumentService additionally checks
// patient writes against stored state: a disarm needs the threshold reached
// and points only grow by a claimed award.
type Policy struct {
	clinicianEmails map[string]struct{}
}

// NewPolicy builds a Policy for the given clinician emails.
func NewPolicy(clinicianEmails []string) *Policy {
	p := &Policy{clinicianEmails: make(map[string]struct{}, len(clinicianEmails))}
	for _, e := range clinicianEmails {
		p.clinicianEmails[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return p
}

// CanWrite checks a write of fields to path. For partial updates only the
// keys being written are inspected.
func (p *Policy) CanWrite(id authx.Identity, path string, fields map[string]any) error {
	segments := strings.Split(path, "/")

	if segments[0] == CollectionUsers && store.Bool(fields, fieldIsDoctor) {
		email := strings.ToLower(strings.TrimSpace(store.String(fields, fieldEmail)))
		if _, ok := p.clinicianEmails[email]; !ok {
			return fmt.Errorf("%w: isDoctor requires a clinician email", common.ErrForbidden)
		}
	}

	if id.IsClinician() {
		return nil
	}

	switch {
	case segments[0] == CollectionChats:
		return nil
	case segments[0] == CollectionUsers && len(segments) == 2 && segments[1] == id.UserID:
		return nil
	case segments[0] == CollectionMilestones && len(segments) == 2 && segments[1] == id.UserID:
		if disarms(fields) {
			return nil
		}
		return fmt.Errorf("%w: patients may only disarm their milestone", common.ErrForbidden)
	}

	return fmt.Errorf("%w: %s", common.ErrForbidden, path)
}

// CanPush checks the creation of a new child under parent.
func (p *Policy) CanPush(id authx.Identity, parent string, fields map[string]any) error {
	return p.CanWrite(id, store.Join(parent, pushPlaceholderSegment), fields)
}

func disarms(fields map[string]any) bool {
	w, okW := store.Float(fields, fieldMilestoneWeight)
	a, okA := store.Float(fields, fieldMilestoneAward)
	return okW && okA && w == 0 && a == 0
}
