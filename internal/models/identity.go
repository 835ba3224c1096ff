package models

import (
	"errors"
	"fmt"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleVolunteer Role = "volunteer"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleVolunteer
}

var ErrInvalidIdentity = errors.New("invalid identity")

// Identity is the verified caller of an operation.
type Identity struct {
	SubjectID string `json:"sub"`
	Role      Role   `json:"role"`
}

func (i Identity) Validate() error {
	if i.SubjectID == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidIdentity)
	}
	if !i.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidIdentity, i.Role)
	}
	return nil
}

func (i Identity) IsVolunteer() bool { return i.Role == RoleVolunteer }

// RecipientID is the realtime address of the identity.
func (i Identity) RecipientID() string {
	return RecipientID(i.Role, i.SubjectID)
}

func RecipientID(role Role, subjectID string) string {
	return string(role) + ":" + subjectID
}
