package model

import "github.com/google/uuid"

// Role is a participant's side of a negotiation. Roles are not global: the
// same user can be a customer on one job request and a seller on another.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
)

// Principal is the authenticated caller as established by the auth
// middleware from the bearer token.
type Principal struct {
	UserID      uuid.UUID
	DisplayName string
	IsSeller    bool
}
