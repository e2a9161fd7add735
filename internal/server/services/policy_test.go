package services

import (
	"testing"

	"github.com/dmitrijs2005/dmoclinic/internal/authx"
	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestPolicy_CanWrite(t *testing.T) {
	p := NewPolicy([]string{"Doc@Clinic.com"})

	patient := authx.Identity{UserID: "u1", Role: common.RolePatient}
	clinician := authx.Identity{UserID: "c1", Role: common.RoleClinician}

	tests := []struct {
		name    string
		id      authx.Identity
		path    string
		fields  map[string]any
		allowed bool
	}{
		{"clinician writes diet", clinician, "diets/d1", map[string]any{"name": "Keto"}, true},
		{"clinician arms milestone", clinician, "milestones/u1", map[string]any{"milestoneWeight": 70.0, "awardPoints": 50}, true},
		{"clinician writes working hours", clinician, "workingHours", map[string]any{}, true},
		{"patient writes own record", patient, "users/u1", map[string]any{"weightProgress": []any{80.0}}, true},
		{"patient writes other record", patient, "users/u2", map[string]any{"points": 1}, false},
		{"patient writes chat message", patient, "chats/c1/messages/m1", map[string]any{"content": "hi"}, true},
		{"patient disarms own milestone", patient, "milestones/u1", map[string]any{"milestoneWeight": 0, "awardPoints": 0}, true},
		{"patient arms own milestone", patient, "milestones/u1", map[string]any{"milestoneWeight": 60.0, "awardPoints": 10}, false},
		{"patient partial milestone write", patient, "milestones/u1", map[string]any{"milestoneWeight": 0}, false},
		{"patient disarms other milestone", patient, "milestones/u2", map[string]any{"milestoneWeight": 0, "awardPoints": 0}, false},
		{"patient writes diet", patient, "diets/d1", map[string]any{}, false},
		{"patient writes working hours", patient, "workingHours", map[string]any{}, false},
		{"patient claims doctor", patient, "users/u1", map[string]any{"isDoctor": true, "email": "me@mail.com"}, false},
		{"clinician email may be doctor", clinician, "users/c1", map[string]any{"isDoctor": true, "email": "doc@clinic.com"}, true},
		{"clinician cannot promote other email", clinician, "users/u1", map[string]any{"isDoctor": true, "email": "me@mail.com"}, false},
		{"isDoctor false is fine", patient, "users/u1", map[string]any{"isDoctor": false, "email": "me@mail.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.CanWrite(tt.id, tt.path, tt.fields)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, common.ErrForbidden)
			}
		})
	}
}

func TestPolicy_CanPush(t *testing.T) {
	p := NewPolicy(nil)
	patient := authx.Identity{UserID: "u1", Role: common.RolePatient}
	clinician := authx.Identity{UserID: "c1", Role: common.RoleClinician}

	assert.NoError(t, p.CanPush(patient, "chats/c1/messages", map[string]any{"content": "hi"}))
	assert.NoError(t, p.CanPush(patient, "chats", map[string]any{"userUID": "u1"}))
	assert.ErrorIs(t, p.CanPush(patient, "diets", map[string]any{"name": "x"}), common.ErrForbidden)
	assert.NoError(t, p.CanPush(clinician, "diets", map[string]any{"name": "x"}))
}
