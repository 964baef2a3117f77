package model

import "github.com/google/uuid"

// TokenManager signs and verifies identity tokens. The role claim carried
// in a token is a hint only: authorization must re-resolve the current
// account state from the store on every call.
type TokenManager interface {
	Generate(userID uuid.UUID, role Role) (string, error)
	Parse(token string) (userID uuid.UUID, role Role, err error)
}
