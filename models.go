package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model. Username and email are each unique lookup keys;
// the password hash never leaves the persistence boundary in serialized form.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName     string         `bun:"first_name" json:"first_name,omitempty"`
	LastName      string         `bun:"last_name" json:"last_name,omitempty"`
	Username      string         `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string         `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string         `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string         `bun:"password_hash" json:"-"`
	Metadata      map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}
