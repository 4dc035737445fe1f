package auth

import (
	"fmt"

	"github.com/google/uuid"
)

// Role tags a token with the kind of account it was issued to.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// ParseRole returns the role named by s.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return r, true
	}
	return "", false
}

// Identity is the account a token speaks for: an admin username or a doctor
// or patient id. Only TokenService.ExtractIdentity produces identities from
// tokens.
type Identity struct {
	Role Role
	ID   string
}

func AdminIdentity(username string) Identity {
	return Identity{Role: RoleAdmin, ID: username}
}

func DoctorIdentity(id uuid.UUID) Identity {
	return Identity{Role: RoleDoctor, ID: id.String()}
}

func PatientIdentity(id uuid.UUID) Identity {
	return Identity{Role: RolePatient, ID: id.String()}
}

func (i Identity) IsZero() bool { return i.Role == "" && i.ID == "" }

// UUID parses the id of a doctor or patient identity.
func (i Identity) UUID() (uuid.UUID, error) {
	if i.Role == RoleAdmin {
		return uuid.Nil, fmt.Errorf("admin identity %q has no uuid", i.ID)
	}
	return uuid.Parse(i.ID)
}

// Is reports whether i is the given role with the given id.
func (i Identity) Is(role Role, id uuid.UUID) bool {
	return i.Role == role && i.ID == id.String()
}

func (i Identity) String() string { return string(i.Role) + ":" + i.ID }
