package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category is a run classification under which times are compared.
type Category struct {
	ID     string
	Name   string
	GameID string
}

// Variable is a category-scoped customization axis. Values maps choice id
// to the human-readable choice label.
type Variable struct {
	ID         string
	CategoryID string
	Name       string
	Values     map[string]string
}

func (v Variable) EncodeValues() (string, error) {
	b, err := json.Marshal(v.Values)
	if err != nil {
		return "", fmt.Errorf("encode variable values: %w", err)
	}
	return string(b), nil
}

func ParseVariableValues(s string) (map[string]string, error) {
	if s == "" {
		return map[string]string{}, nil
	}
	var values map[string]string
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, fmt.Errorf("decode variable values: %w", err)
	}
	return values, nil
}

// MasterRow is the denormalized, presentation-ready projection of one run.
// It is rebuilt wholesale on every resync and never patched in place.
type MasterRow struct {
	RunID        string
	GameID       string
	GameName     string
	Players      UserSet
	Date         time.Time
	RTA          float64
	IGT          float64
	CategoryName string
	VariableInfo map[string]string // variable name -> selected choice label
	Verifier     UserSet
	VerifyDate   *time.Time
	Status       RunStatus
	Video        string
	Comment      string
}

func (m MasterRow) EncodeVariableInfo() (string, error) {
	info := m.VariableInfo
	if info == nil {
		info = map[string]string{}
	}
	b, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("encode variable info: %w", err)
	}
	return string(b), nil
}

func ParseVariableInfo(s string) (map[string]string, error) {
	if s == "" {
		return map[string]string{}, nil
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(s), &info); err != nil {
		return nil, fmt.Errorf("decode variable info: %w", err)
	}
	return info, nil
}
