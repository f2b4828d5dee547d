package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RunStatus is the lifecycle state reported by speedrun.com for a run.
type RunStatus string

const (
	StatusNew      RunStatus = "new"
	StatusVerified RunStatus = "verified"
	StatusRejected RunStatus = "rejected"
)

// Run is one cached speedrun submission. VerifierID is empty and VerifyDate
// nil while the run is unverified. IGT is always populated: when the source
// reports an in-game time of exactly zero, the real time is copied in.
type Run struct {
	ID         string
	GameID     string
	Players    PlayerSet
	Date       time.Time
	RTA        float64
	IGT        float64
	CategoryID string
	Values     VarSelection
	VerifierID string
	VerifyDate *time.Time
	Status     RunStatus
	Reason     string
	Video      string
	Comment    string
}

// PlayerSet is the ordered set of player ids on a run: registered user ids
// or synthesized guest_<name> ids. Never empty for a submitted run.
type PlayerSet []string

// Encode renders the set into its stored text form.
func (p PlayerSet) Encode() string {
	return strings.Join(p, ", ")
}

// Equal compares two player sets ignoring order.
func (p PlayerSet) Equal(other PlayerSet) bool {
	if len(p) != len(other) {
		return false
	}
	seen := make(map[string]int, len(p))
	for _, id := range p {
		seen[id]++
	}
	for _, id := range other {
		seen[id]--
		if seen[id] < 0 {
			return false
		}
	}
	return true
}

// ParsePlayerSet decodes the stored text form produced by Encode.
func ParsePlayerSet(s string) PlayerSet {
	if s == "" {
		return nil
	}
	return strings.Split(s, ", ")
}

// VarSelection maps a variable id to the selected choice id for a run.
type VarSelection map[string]string

func (v VarSelection) Encode() (string, error) {
	if v == nil {
		v = VarSelection{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode variable selection: %w", err)
	}
	return string(b), nil
}

func ParseVarSelection(s string) (VarSelection, error) {
	if s == "" {
		return VarSelection{}, nil
	}
	var v VarSelection
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decode variable selection: %w", err)
	}
	return v, nil
}

const dateLayout = "2006-01-02"

// EncodeDate renders a date in the ISO-8601 date-only form used by every
// date column in the cache.
func EncodeDate(t time.Time) string {
	return t.Format(dateLayout)
}

// EncodeNullableDate returns nil for a nil date so the column stores NULL.
func EncodeNullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
