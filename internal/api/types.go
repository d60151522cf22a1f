package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidUserID is returned before any request when a user id is not a UUID.
var ErrInvalidUserID = errors.New("invalid user id")

// StatusError is a non-2xx API response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d", e.Code)
	}
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// --- Timestamps ---

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp accepts the server's zone-less ISO datetimes. Values without a
// zone are UTC.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// --- Users ---

// User is a backend account holder.
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Created     *Timestamp `json:"created,omitempty"`
	LastSeen    *Timestamp `json:"last_seen,omitempty"`
	LastUpdated *Timestamp `json:"last_updated,omitempty"`
}

// OnlineWindow is how recently a user must have been seen to count as online.
const OnlineWindow = 15 * time.Minute

// Presence summarises when a user was last active.
type Presence int

const (
	PresenceNever Presence = iota
	PresenceOnline
	PresenceAway
)

// Presence classifies the user relative to now.
func (u User) Presence(now time.Time) Presence {
	if u.LastSeen == nil || u.LastSeen.IsZero() {
		return PresenceNever
	}
	if now.Sub(u.LastSeen.Time) <= OnlineWindow {
		return PresenceOnline
	}
	return PresenceAway
}

// PresenceText renders the presence as shown in listings.
func (u User) PresenceText(now time.Time) string {
	switch u.Presence(now) {
	case PresenceOnline:
		return "online"
	case PresenceAway:
		return "last seen " + u.LastSeen.Local().Format("2006-01-02 15:04")
	default:
		return "awaiting first login"
	}
}

// UserPage is one page of the user listing.
type UserPage struct {
	Users    []User `json:"users"`
	Page     int    `json:"page"`
	NextPage bool   `json:"next_page"`
}

// UserQuery filters the user listing. Zero fields are omitted.
type UserQuery struct {
	Page           int
	PageSize       int
	UsernameFilter string
}

// NewUserInput is the body for user creation.
type NewUserInput struct {
	Username        string `json:"username" validate:"required,max=26"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// --- Permissions ---

// Permission is one grantable permission key.
type Permission struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// AdminPermission is never editable.
const AdminPermission = "admin"

// Permission gates checked by the console.
const (
	PermViewUsers      = "view-users"
	PermModifyUsers    = "modify-users"
	PermManageUsers    = "manage-users"
	PermManageAccounts = "manage-accounts"
)

// --- Accounts ---

// Account is a linked media account.
type Account struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// AccountPage is one page of the account listing.
type AccountPage struct {
	Accounts []Account `json:"accounts"`
	Page     int       `json:"page"`
	NextPage bool      `json:"next_page"`
}

// AccountQuery filters the account listing.
type AccountQuery struct {
	Page       int
	PageSize   int
	NameFilter string
	Domain     string
}

// --- Logs ---

// LogNode is a directory or file in the server's log index.
type LogNode struct {
	Name     string
	Path     string
	Size     int64
	Dir      bool
	Children []LogNode
}

// Files returns every file under n, depth first in tree order.
func (n LogNode) Files() []LogNode {
	var out []LogNode
	for _, child := range n.Children {
		if child.Dir {
			out = append(out, child.Files()...)
			continue
		}
		out = append(out, child)
	}
	return out
}

// LogRecord is one line of a streamed log file.
type LogRecord struct {
	Time      string         `json:"asctime"`
	Level     string         `json:"levelname"`
	Component string         `json:"name"`
	Message   string         `json:"message"`
	Error     string         `json:"error,omitempty"`
	Extra     map[string]any `json:"-"`
}

// IsError reports whether the line could not be read as a log record.
func (r LogRecord) IsError() bool {
	return r.Error != ""
}
