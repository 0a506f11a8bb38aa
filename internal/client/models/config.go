// Package models holds the data shapes shared by the client packages: the
// persisted user config, the portal session and billing results.
package models

import (
	"strings"

	"github.com/dmitrijs2005/tjuecard/internal/cryptox"
)

// UserConfig is the on-disk user_config.json written by setup.
type UserConfig struct {
	Credentials   Credentials    `json:"credentials"`
	Selection     RoomSelection  `json:"selection"`
	EmailNotifier *EmailNotifier `json:"email_notifier,omitempty"`
}

// Credentials for the portal login. Password is only set in legacy configs
// that have not been migrated yet; PasswordEnc wins when both are present.
type Credentials struct {
	Username    string                   `json:"username,omitempty"`
	Password    string                   `json:"password,omitempty"`
	PasswordEnc *cryptox.EncryptedSecret `json:"password_enc,omitempty"`
}

// HasPassword reports whether any form of password is stored.
func (c Credentials) HasPassword() bool {
	return c.PasswordEnc != nil || c.Password != ""
}

// Entity is one node of the room hierarchy as the portal names it.
type Entity struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}

// RoomSelection is the full six-level path to a room. All levels are
// required; a partial selection is rejected as a whole.
type RoomSelection struct {
	System   *Entity `json:"system" validate:"required"`
	Area     *Entity `json:"area" validate:"required"`
	District *Entity `json:"district" validate:"required"`
	Building *Entity `json:"buis" validate:"required"`
	Floor    *Entity `json:"floor" validate:"required"`
	Room     *Entity `json:"room" validate:"required"`
}

// Complete reports whether every level is present with a non-empty id.
func (s RoomSelection) Complete() bool {
	for _, e := range []*Entity{s.System, s.Area, s.District, s.Building, s.Floor, s.Room} {
		if e == nil || e.ID == "" {
			return false
		}
	}
	return true
}

// Path renders the selection as "system > area > ... > room".
func (s RoomSelection) Path() string {
	levels := []*Entity{s.System, s.Area, s.District, s.Building, s.Floor, s.Room}
	names := make([]string, 0, len(levels))
	for _, e := range levels {
		if e == nil {
			names = append(names, "?")
			continue
		}
		names = append(names, e.Name)
	}
	return strings.Join(names, " > ")
}

// NoThreshold means "notify after every run".
const NoThreshold = -1

// EmailNotifier configures the result mail. AuthCode is the provider's SMTP
// authorisation code, not the mailbox password.
type EmailNotifier struct {
	Email       string                   `json:"email"`
	AuthCode    string                   `json:"auth_code,omitempty"`
	AuthCodeEnc *cryptox.EncryptedSecret `json:"auth_code_enc,omitempty"`
	Threshold   *float64                 `json:"notification_threshold,omitempty"`
}

// NotificationThreshold returns the configured threshold or NoThreshold.
func (n *EmailNotifier) NotificationThreshold() float64 {
	if n == nil || n.Threshold == nil {
		return NoThreshold
	}
	return *n.Threshold
}

// Configured reports whether enough is present to attempt a send.
func (n *EmailNotifier) Configured() bool {
	return n != nil && n.Email != "" && (n.AuthCodeEnc != nil || n.AuthCode != "")
}
