package domain

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
)

// Field length limits shared by validation and the schema.
const (
	MaxNameLength     = 255
	MaxEmailLength    = 255
	MinPasswordLength = 8
)

// UserRole identifies the privilege tier of a user.
type UserRole string

const (
	RoleClient     UserRole = "client"
	RoleTechnician UserRole = "technician"
	RoleAdmin      UserRole = "admin"
)

// roleInheritance maps a role to the role it inherits permissions from.
// admin -> technician -> client; client is the base of the chain.
var roleInheritance = map[UserRole]UserRole{
	RoleAdmin:      RoleTechnician,
	RoleTechnician: RoleClient,
}

// IsValid reports whether the role is a known enum value.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleClient, RoleTechnician, RoleAdmin:
		return true
	}
	return false
}

// RoleSatisfies reports whether role grants the permissions of required,
// walking the inheritance chain.
func RoleSatisfies(role, required UserRole) bool {
	for r := role; r != ""; r = roleInheritance[r] {
		if r == required {
			return true
		}
	}
	return false
}

// User is a registered account: a client, a technician, or an admin.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	Phone        string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// Principal is the authenticated identity attached to a connection or
// request. It is resolved once from the session and treated as immutable
// for the connection's lifetime.
type Principal struct {
	ID   uuid.UUID
	Name string
	Role UserRole
}

// Principal derives the connection identity from a user record.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Name: u.Name, Role: u.Role}
}

// CheckPassword verifies a plaintext password against the stored hash.
func CheckPassword(u *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", apperrors.ErrPasswordTooWeak
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// ValidateEmail reports whether the address is parseable.
func ValidateEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
