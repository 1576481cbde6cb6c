package denormalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmerrifield20/profiles/internal/features"
	"github.com/jmerrifield20/profiles/internal/users"
)

// ErrInvalidUser is returned when the record handed to Sanitize cannot be
// turned into a profile.
var ErrInvalidUser = errors.New("invalid user record")

// Timestamps mirrors the record's bookkeeping dates.
type Timestamps struct {
	Creation time.Time `json:"creation"`
	Updated  time.Time `json:"updated"`
}

// Profile is the sanitized, enriched representation of a user sent to clients.
type Profile struct {
	ID                uuid.UUID  `json:"_id"`
	Firstname         string     `json:"firstname"`
	Lastname          string     `json:"lastname"`
	Emails            []string   `json:"emails"`
	JobTitle          string     `json:"job_title,omitempty"`
	Service           string     `json:"service,omitempty"`
	BuildingLocation  string     `json:"building_location,omitempty"`
	OfficeLocation    string     `json:"office_location,omitempty"`
	MainPhone         string     `json:"main_phone,omitempty"`
	Description       string     `json:"description,omitempty"`
	PreferredDomainID uuid.UUID  `json:"preferredDomainId"`
	CurrentAvatar     *uuid.UUID `json:"currentAvatar,omitempty"`
	Timestamps        Timestamps `json:"timestamps"`

	// Private data, present only when the caller keeps it.
	Accounts []users.Account          `json:"accounts,omitempty"`
	Domains  []users.DomainMembership `json:"domains,omitempty"`
	Login    *users.LoginState        `json:"login,omitempty"`
	Metadata map[string]any           `json:"metadata,omitempty"`

	Followers   int                        `json:"followers"`
	Followings  int                        `json:"followings"`
	Following   *bool                      `json:"following,omitempty"`
	Disabled    bool                       `json:"disabled"`
	Features    *features.Features         `json:"features,omitempty"`
	Preferences map[string]json.RawMessage `json:"preferences"`
}

// PublicKeys lists the wire names always carried by a Profile.
var PublicKeys = []string{
	"_id", "firstname", "lastname", "emails", "job_title", "service",
	"building_location", "office_location", "main_phone", "description",
	"preferredDomainId", "currentAvatar", "timestamps",
}

// PrivateKeys lists the wire names removed when private data is not kept.
var PrivateKeys = []string{"accounts", "domains", "login", "metadata"}

// Sanitize copies the public fields of u into a new Profile, and its private
// fields too unless stripPrivate is set. Credentials are never copied.
func Sanitize(u *users.User, stripPrivate bool) (*Profile, error) {
	if u == nil {
		return nil, fmt.Errorf("%w: nil user", ErrInvalidUser)
	}
	if u.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidUser)
	}

	p := &Profile{
		ID:                u.ID,
		Firstname:         u.Firstname,
		Lastname:          u.Lastname,
		Emails:            append([]string{}, u.Emails...),
		JobTitle:          u.JobTitle,
		Service:           u.Service,
		BuildingLocation:  u.BuildingLocation,
		OfficeLocation:    u.OfficeLocation,
		MainPhone:         u.MainPhone,
		Description:       u.Description,
		PreferredDomainID: u.PreferredDomainID,
		Timestamps:        Timestamps{Creation: u.CreatedAt, Updated: u.UpdatedAt},
	}
	if u.CurrentAvatar != nil {
		avatar := *u.CurrentAvatar
		p.CurrentAvatar = &avatar
	}

	if stripPrivate {
		return p, nil
	}

	p.Accounts = append([]users.Account(nil), u.Accounts...)
	p.Domains = append([]users.DomainMembership(nil), u.Domains...)
	login := u.Login
	p.Login = &login
	if len(u.Metadata) > 0 {
		p.Metadata = make(map[string]any, len(u.Metadata))
		for k, v := range u.Metadata {
			p.Metadata[k] = v
		}
	}
	return p, nil
}
