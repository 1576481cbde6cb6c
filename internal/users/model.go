package users

import (
	"time"

	"github.com/google/uuid"
)

// AccountType identifies how a linked account authenticates.
type AccountType string

const (
	AccountTypeEmail AccountType = "email"
	AccountTypeOAuth AccountType = "oauth"
)

// Account is an identity linked to a user record.
type Account struct {
	Type           AccountType `json:"type"`
	Hosted         bool        `json:"hosted,omitempty"`
	PreferredEmail string      `json:"preferredEmail,omitempty"`
	Emails         []string    `json:"emails"`
}

// DomainMembership records a user joining a domain.
type DomainMembership struct {
	DomainID uuid.UUID `json:"domain_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// LoginState tracks the account's ability to sign in.
type LoginState struct {
	Disabled    bool       `json:"disabled"`
	Failures    int        `json:"failures"`
	LastSuccess *time.Time `json:"success,omitempty"`
}

// User is the authoritative account record.
type User struct {
	ID                uuid.UUID  `json:"_id"               db:"id"`
	Firstname         string     `json:"firstname"         db:"firstname"`
	Lastname          string     `json:"lastname"          db:"lastname"`
	Emails            []string   `json:"emails"            db:"emails"`
	JobTitle          string     `json:"job_title"         db:"job_title"`
	Service           string     `json:"service"           db:"service"`
	BuildingLocation  string     `json:"building_location" db:"building_location"`
	OfficeLocation    string     `json:"office_location"   db:"office_location"`
	MainPhone         string     `json:"main_phone"        db:"main_phone"`
	Description       string     `json:"description"       db:"description"`
	PreferredDomainID uuid.UUID  `json:"preferredDomainId" db:"preferred_domain_id"`
	CurrentAvatar     *uuid.UUID `json:"currentAvatar"     db:"current_avatar"`
	PasswordHash      string     `json:"-"                 db:"password_hash"`

	Accounts []Account          `json:"accounts" db:"accounts"`
	Domains  []DomainMembership `json:"domains"  db:"domains"`
	Login    LoginState         `json:"login"    db:"login"`
	Metadata map[string]any     `json:"metadata" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PrimaryEmail returns the first registered email, or "" when there is none.
func (u *User) PrimaryEmail() string {
	if len(u.Emails) == 0 {
		return ""
	}
	return u.Emails[0]
}
