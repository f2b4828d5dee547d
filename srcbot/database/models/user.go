package models

import (
	"encoding/json"
	"fmt"
)

// UserType distinguishes registered speedrun.com users from guests, which
// only exist as free-text names on runs.
type UserType string

const (
	UserRegistered UserType = "user"
	UserGuest      UserType = "guest"
)

// GuestID synthesizes the local id for an unregistered guest name.
func GuestID(name string) string {
	return "guest_" + name
}

// User is one cached participant or verifier.
type User struct {
	ID       string
	Name     string
	Pronouns string
	Type     UserType
	Pfp      string
}

// UserSet is an insertion-ordered mapping from user id to display info.
// Order is preserved because it is the display order on the master view.
type UserSet struct {
	ids  []string
	byID map[string]User
}

// userEntry is the stored JSON shape. An array keeps insertion order, which
// a plain JSON object would not.
type userEntry struct {
	ID       string `json:"user_id"`
	Name     string `json:"user_name,omitempty"`
	Pronouns string `json:"pronouns,omitempty"`
	Type     string `json:"user_type,omitempty"`
	Pfp      string `json:"user_pfp,omitempty"`
}

// Add inserts or replaces a user, keeping first-insertion order on replace.
func (s *UserSet) Add(u User) {
	if s.byID == nil {
		s.byID = make(map[string]User)
	}
	if _, ok := s.byID[u.ID]; !ok {
		s.ids = append(s.ids, u.ID)
	}
	s.byID[u.ID] = u
}

func (s *UserSet) Get(id string) (User, bool) {
	u, ok := s.byID[id]
	return u, ok
}

func (s *UserSet) Len() int {
	return len(s.ids)
}

// Users returns the members in insertion order.
func (s *UserSet) Users() []User {
	out := make([]User, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.byID[id])
	}
	return out
}

// Names returns the display names in insertion order, falling back to the
// id when no name was resolved.
func (s *UserSet) Names() []string {
	out := make([]string, 0, len(s.ids))
	for _, id := range s.ids {
		if u := s.byID[id]; u.Name != "" {
			out = append(out, u.Name)
		} else {
			out = append(out, id)
		}
	}
	return out
}

func (s *UserSet) Encode() (string, error) {
	entries := make([]userEntry, 0, len(s.ids))
	for _, id := range s.ids {
		u := s.byID[id]
		entries = append(entries, userEntry{
			ID:       u.ID,
			Name:     u.Name,
			Pronouns: u.Pronouns,
			Type:     string(u.Type),
			Pfp:      u.Pfp,
		})
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode user set: %w", err)
	}
	return string(b), nil
}

func ParseUserSet(s string) (UserSet, error) {
	var set UserSet
	if s == "" {
		return set, nil
	}
	var entries []userEntry
	if err := json.Unmarshal([]byte(s), &entries); err != nil {
		return set, fmt.Errorf("decode user set: %w", err)
	}
	for _, e := range entries {
		set.Add(User{
			ID:       e.ID,
			Name:     e.Name,
			Pronouns: e.Pronouns,
			Type:     UserType(e.Type),
			Pfp:      e.Pfp,
		})
	}
	return set, nil
}
