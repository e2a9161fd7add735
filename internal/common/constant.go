// Package common contains shared constants and sentinel errors used across
// DMO Clinic components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Role is the fixed role of an account. It is assigned at creation and never
// changes afterwards.
type Role string

const (
	RolePatient   Role = "patient"
	RoleClinician Role = "clinician"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleClinician
}
