package guest

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultGuestName = "Guest"

// User is a diner identified by phone number.
type User struct {
	ID          uuid.UUID `json:"id" bson:"_id"`
	Phone       string    `json:"phone" bson:"phone"`
	Name        string    `json:"name" bson:"name"`
	Preferences []string  `json:"preferences" bson:"preferences"`
	VisitCount  int       `json:"visitCount" bson:"visit_count"`
	LastVisit   time.Time `json:"lastVisit" bson:"last_visit"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

// GetID returns the ID of the User (implements Identifiable interface).
func (u *User) GetID() uuid.UUID {
	return u.ID
}

// ResourceType returns the resource type for URL generation.
func (u *User) ResourceType() string {
	return "user"
}

// NewUser registers a first visit.
func NewUser(phone, name string, preferences []string, now time.Time) *User {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultGuestName
	}
	if preferences == nil {
		preferences = []string{}
	}
	return &User{
		ID:          uuid.New(),
		Phone:       phone,
		Name:        name,
		Preferences: preferences,
		VisitCount:  1,
		LastVisit:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// RecordVisit registers a returning visit. A non-empty name or preference
// list replaces the stored one.
func (u *User) RecordVisit(name string, preferences []string, now time.Time) {
	if name = strings.TrimSpace(name); name != "" {
		u.Name = name
	}
	if len(preferences) > 0 {
		u.Preferences = preferences
	}
	u.VisitCount++
	u.LastVisit = now
	u.UpdatedAt = now
}

// NormalizePhone drops spaces, dashes and parentheses so the same number
// typed two ways maps to one guest.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(phone) {
		switch r {
		case ' ', '-', '(', ')', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidPhone accepts an optional leading plus followed by 6 to 15 digits.
func ValidPhone(phone string) bool {
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < 6 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// cleanPreferences trims entries, drops blanks and duplicates, keeping the
// first occurrence order.
func cleanPreferences(prefs []string) []string {
	seen := make(map[string]bool, len(prefs))
	out := make([]string, 0, len(prefs))
	for _, p := range prefs {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
