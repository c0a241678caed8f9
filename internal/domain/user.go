package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role constants define the supported user roles.
const (
	RoleAdmin       = "admin"
	RoleTeamManager = "team_manager"
	RoleTeamMember  = "team_member"
)

type User struct {
	ID        uuid.UUID
	Username  string
	Email     string
	Role      string // "admin", "team_manager", or "team_member"
	CreatedAt time.Time
}

// NormalizeRole maps the inconsistent role encodings found in source data to
// a canonical lowercase tag. Roles are sometimes stored as a raw string
// ("admin"), sometimes as a stringified enum ("UserRole.ADMIN"); both
// normalize to "admin".
func NormalizeRole(raw string) string {
	role := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.LastIndex(role, "."); i >= 0 {
		role = role[i+1:]
	}
	return role
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}
