package models

import "time"

// User is an admin console account. PasswordHash is produced by the
// authentication layer; the store only carries it.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email,omitempty"`
	PasswordHash string     `json:"passwordHash,omitempty"`
	Role         string     `json:"role"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

func (u User) RecordID() string { return u.ID }
func (u User) Label() string    { return u.Username }
func (u User) IsActive() bool   { return u.Active }

// UserPatch holds optional User fields.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	Role         *string
	Active       *bool
	LastLoginAt  *time.Time
}

// Apply merges the set fields onto u.
func (p UserPatch) Apply(u *User) {
	setString(&u.Username, p.Username)
	setString(&u.Email, p.Email)
	setString(&u.PasswordHash, p.PasswordHash)
	setString(&u.Role, p.Role)
	setBool(&u.Active, p.Active)
	if p.LastLoginAt != nil {
		t := *p.LastLoginAt
		u.LastLoginAt = &t
	}
}
