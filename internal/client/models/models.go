// Package models defines the clinic records stored in the remote document
// store and their conversion to and from document fields.
package models

import (
	"strconv"

	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
)

// Collection and document paths.
const (
	UsersCollection      = "users"
	MilestonesCollection = "milestones"
	DietsCollection      = "diets"
	ChatsCollection      = "chats"
	MessagesCollection   = "messages"
	WorkingHoursPath     = "workingHours"
)

func UserPath(id string) string      { return store.Join(UsersCollection, id) }
func MilestonePath(id string) string { return store.Join(MilestonesCollection, id) }
func DietPath(id string) string      { return store.Join(DietsCollection, id) }
func ChatPath(id string) string      { return store.Join(ChatsCollection, id) }
func MessagesPath(chatID string) string {
	return store.Join(ChatsCollection, chatID, MessagesCollection)
}

// Field names of users/{id}.
const (
	FieldFirstName      = "firstName"
	FieldLastName       = "lastName"
	FieldEmail          = "email"
	FieldPhoneNumber    = "phoneNumber"
	FieldWeightProgress = "weightProgress"
	FieldTargetWeight   = "targetWeight"
	FieldIsDoctor       = "isDoctor"
	FieldDiet           = "diet"
	FieldPoints         = "points"
)

// Field names of milestones/{id}.
const (
	FieldMilestoneWeight = "milestoneWeight"
	FieldAwardPoints     = "awardPoints"
)

// UserAccount is users/{id}.
type UserAccount struct {
	ID             string
	FirstName      string
	LastName       string
	Email          string
	PhoneNumber    string
	WeightProgress []float64
	// TargetWeight is kept as entered; empty means unset.
	TargetWeight string
	IsDoctor     bool
	Diet         string
	Points       int64
}

// Role derives the account role from the isDoctor flag.
func (u *UserAccount) Role() common.Role {
	if u.IsDoctor {
		return common.RoleClinician
	}
	return common.RolePatient
}

// FullName joins first and last name.
func (u *UserAccount) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// LatestWeight returns the last logged weight.
func (u *UserAccount) LatestWeight() (float64, bool) {
	if len(u.WeightProgress) == 0 {
		return 0, false
	}
	return u.WeightProgress[len(u.WeightProgress)-1], true
}

// Target parses TargetWeight.
func (u *UserAccount) Target() (float64, bool) {
	if u.TargetWeight == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(u.TargetWeight, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (u *UserAccount) Fields() map[string]any {
	weights := u.WeightProgress
	if weights == nil {
		weights = []float64{}
	}
	return map[string]any{
		FieldFirstName:      u.FirstName,
		FieldLastName:       u.LastName,
		FieldEmail:          u.Email,
		FieldPhoneNumber:    u.PhoneNumber,
		FieldWeightProgress: weights,
		FieldTargetWeight:   u.TargetWeight,
		FieldIsDoctor:       u.IsDoctor,
		FieldDiet:           u.Diet,
		FieldPoints:         u.Points,
	}
}

func UserFromDocument(d *store.Document) *UserAccount {
	f := d.Fields
	return &UserAccount{
		ID:             d.ID(),
		FirstName:      store.String(f, FieldFirstName),
		LastName:       store.String(f, FieldLastName),
		Email:          store.String(f, FieldEmail),
		PhoneNumber:    store.String(f, FieldPhoneNumber),
		WeightProgress: store.Floats(f, FieldWeightProgress),
		TargetWeight:   store.String(f, FieldTargetWeight),
		IsDoctor:       store.Bool(f, FieldIsDoctor),
		Diet:           store.String(f, FieldDiet),
		Points:         store.Int(f, FieldPoints),
	}
}

// Milestone is milestones/{id}. ThresholdWeight 0 means disarmed.
type Milestone struct {
	ThresholdWeight float64
	AwardPoints     int64
}

func (m Milestone) Armed() bool {
	return m.ThresholdWeight > 0
}

func (m Milestone) Fields() map[string]any {
	return map[string]any{
		FieldMilestoneWeight: m.ThresholdWeight,
		FieldAwardPoints:     m.AwardPoints,
	}
}

func MilestoneFromFields(f map[string]any) Milestone {
	w, _ := store.Float(f, FieldMilestoneWeight)
	return Milestone{ThresholdWeight: w, AwardPoints: store.Int(f, FieldAwardPoints)}
}

// Disarmed is the milestone value written after a payout.
var Disarmed = Milestone{}
