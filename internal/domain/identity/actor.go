package identity

import (
	"github.com/google/uuid"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/shared"
)

// Role represents the privilege level of a staff member
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
)

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleStaff:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// Actor identifies the staff member performing a mutating operation.
// It is passed explicitly to every operation so the engine stays usable
// outside a request-handling context.
type Actor struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
}

// NewActor creates an actor after validating its fields
func NewActor(id uuid.UUID, displayName string, role Role) (Actor, error) {
	if id == uuid.Nil {
		return Actor{}, shared.NewDomainError("INVALID_ACTOR", "Actor ID cannot be empty")
	}
	if displayName == "" {
		return Actor{}, shared.NewDomainError("INVALID_ACTOR", "Actor display name cannot be empty")
	}
	if !role.IsValid() {
		return Actor{}, shared.NewDomainError("INVALID_ACTOR", "Unknown actor role")
	}
	return Actor{ID: id, DisplayName: displayName, Role: role}, nil
}

// Authorizer answers privilege questions for an actor.
// The engine only calls these boolean gates; it does not implement
// authorization policy itself.
type Authorizer interface {
	CanEditOrder(actor Actor) bool
	CanDeleteDeliveryRecord(actor Actor) bool
}

// RoleAuthorizer is the default role-based Authorizer
type RoleAuthorizer struct{}

// NewRoleAuthorizer creates a RoleAuthorizer
func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{}
}

// CanEditOrder returns true for any valid staff role
func (a *RoleAuthorizer) CanEditOrder(actor Actor) bool {
	return actor.Role.IsValid()
}

// CanDeleteDeliveryRecord returns true only for administrators
func (a *RoleAuthorizer) CanDeleteDeliveryRecord(actor Actor) bool {
	return actor.Role == RoleAdmin
}
