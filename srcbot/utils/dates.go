package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/srcbot/bot/srcbot/database/query"
)

// ErrBadDateExpr reports a date expression that matches no recognized form.
var ErrBadDateExpr = errors.New("date expression not in a recognized format")

var (
	isoDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	yearRe    = regexp.MustCompile(`\d{4}`)
)

const isoDate = "2006-01-02"

// ParseDateConditions turns a human date expression into conditions on the
// date column. Recognized forms:
//
//	after YYYY-MM-DD / before YYYY-MM-DD / on YYYY-MM-DD
//	between YYYY-MM-DD and YYYY-MM-DD   (inclusive)
//	last N days|weeks|months|years      (relative to today)
//	year YYYY
//
// Months count as 30 days and years as 365, matching the suggestions the
// date autocomplete offers.
func ParseDateConditions(expr string, today time.Time) ([]query.Cond, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(expr)))
	if len(fields) == 0 {
		return nil, ErrBadDateExpr
	}

	switch fields[0] {
	case "after", "before", "on":
		dates := isoDateRe.FindAllString(expr, -1)
		if len(dates) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrBadDateExpr, expr)
		}
		op := map[string]string{"after": ">", "before": "<", "on": "="}[fields[0]]
		return []query.Cond{query.New("date", op, dates[0])}, nil

	case "between":
		dates := isoDateRe.FindAllString(expr, -1)
		if len(dates) < 2 {
			return nil, fmt.Errorf("%w: %q", ErrBadDateExpr, expr)
		}
		return []query.Cond{
			query.New("date", ">=", dates[0]),
			query.New("date", "<=", dates[1]),
		}, nil

	case "last":
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: %q", ErrBadDateExpr, expr)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", ErrBadDateExpr, expr)
		}
		var days int
		switch strings.TrimSuffix(fields[2], "s") + "s" {
		case "days":
			days = n
		case "weeks":
			days = n * 7
		case "months":
			days = n * 30
		case "years":
			days = n * 365
		default:
			return nil, fmt.Errorf("%w: %q", ErrBadDateExpr, expr)
		}
		cutoff := today.AddDate(0, 0, -days)
		return []query.Cond{query.New("date", ">", cutoff.Format(isoDate))}, nil

	case "year":
		year := yearRe.FindString(expr)
		if year == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadDateExpr, expr)
		}
		return []query.Cond{
			query.New("date", ">=", year+"-01-01"),
			query.New("date", "<=", year+"-12-31"),
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrBadDateExpr, expr)
}

// DateKeywords are the autocomplete templates for date expressions, keyed
// by their leading keyword.
var DateKeywords = map[string][]string{
	"after":   {"After YYYY-MM-DD"},
	"before":  {"Before YYYY-MM-DD"},
	"on":      {"On YYYY-MM-DD"},
	"between": {"Between YYYY-MM-DD and YYYY-MM-DD"},
	"last":    {"Last # Days", "Last # Weeks", "Last # Months", "Last # Years"},
	"year":    {"Year YYYY"},
}
