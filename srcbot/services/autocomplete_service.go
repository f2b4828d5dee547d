package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sahilm/fuzzy"

	"github.com/srcbot/bot/srcbot/database/models"
	"github.com/srcbot/bot/srcbot/srcom"
	"github.com/srcbot/bot/srcbot/utils"
)

const (
	maxChoices    = 25
	gameCacheSize = 256
)

// Choice is one autocomplete suggestion, transport-agnostic so the command
// layer owns the Discord types.
type Choice struct {
	Name  string
	Value string
}

// GameSearcher is the remote lookup behind the game autocomplete.
type GameSearcher interface {
	SearchGames(ctx context.Context, name string) ([]srcom.Game, error)
}

// AutocompleteService backs the interactive option suggestions. Remote game
// lookups are debounced (only the last request in a typing burst hits the
// API) and cached; run suggestions come from the local master table ranked
// by fuzzy match.
type AutocompleteService struct {
	source    GameSearcher
	query     *QueryService
	debouncer *utils.Debouncer
	gameCache *lru.Cache
}

func NewAutocompleteService(source GameSearcher, query *QueryService, debounceDelay time.Duration) *AutocompleteService {
	cache, _ := lru.New(gameCacheSize)
	return &AutocompleteService{
		source:    source,
		query:     query,
		debouncer: utils.NewDebouncer(debounceDelay),
		gameCache: cache,
	}
}

// Games suggests games matching the typed name, with the game id as value.
// A preempted lookup returns no suggestions; the newer request serves them.
func (s *AutocompleteService) Games(ctx context.Context, current string) ([]Choice, error) {
	key := strings.ToLower(strings.TrimSpace(current))
	if key == "" {
		return nil, nil
	}
	if cached, ok := s.gameCache.Get(key); ok {
		return cached.([]Choice), nil
	}

	games, ran, err := utils.Debounce(ctx, s.debouncer, func(ctx context.Context) ([]srcom.Game, error) {
		return s.source.SearchGames(ctx, current)
	})
	if err != nil {
		return nil, err
	}
	if !ran {
		return nil, nil
	}

	choices := make([]Choice, 0, min(len(games), maxChoices))
	for _, game := range games {
		if len(choices) == maxChoices {
			break
		}
		choices = append(choices, Choice{
			Name:  utils.TruncateChoiceName(game.Names.International),
			Value: game.ID,
		})
	}
	s.gameCache.Add(key, choices)
	return choices, nil
}

// runItems adapts master rows to fuzzy.Source.
type runItems []runItem

type runItem struct {
	display string
	runID   string
}

func (r runItems) Len() int            { return len(r) }
func (r runItems) String(i int) string { return r[i].display }

// Runs suggests cached runs matching the typed text, with the run id as
// value. Without input the most recent runs are offered.
func (s *AutocompleteService) Runs(ctx context.Context, current string) ([]Choice, error) {
	rows, err := s.query.SearchRuns(ctx, "")
	if err != nil {
		return nil, err
	}
	items := make(runItems, 0, len(rows))
	for _, m := range rows {
		items = append(items, runItem{display: DisplayRun(m), runID: m.RunID})
	}

	if strings.TrimSpace(current) == "" {
		choices := make([]Choice, 0, min(len(items), maxChoices))
		for _, item := range items {
			if len(choices) == maxChoices {
				break
			}
			choices = append(choices, Choice{Name: utils.TruncateChoiceName(item.display), Value: item.runID})
		}
		return choices, nil
	}

	matches := fuzzy.FindFrom(current, items)
	choices := make([]Choice, 0, min(len(matches), maxChoices))
	for _, match := range matches {
		if len(choices) == maxChoices {
			break
		}
		item := items[match.Index]
		choices = append(choices, Choice{Name: utils.TruncateChoiceName(item.display), Value: item.runID})
	}
	return choices, nil
}

// Dates suggests date-expression templates for the typed keyword prefix.
func (s *AutocompleteService) Dates(current string) []Choice {
	first := strings.ToLower(strings.TrimSpace(current))
	if i := strings.IndexByte(first, ' '); i >= 0 {
		first = first[:i]
	}

	if templates, ok := utils.DateKeywords[first]; ok {
		choices := make([]Choice, 0, len(templates))
		for _, tmpl := range templates {
			choices = append(choices, Choice{Name: tmpl, Value: tmpl})
		}
		return choices
	}

	var choices []Choice
	for keyword, templates := range utils.DateKeywords {
		if !strings.Contains(keyword, first) {
			continue
		}
		for _, tmpl := range templates {
			choices = append(choices, Choice{Name: tmpl, Value: tmpl})
		}
	}
	return choices
}

// DisplayRun is the one-line presentation of a master row used in
// suggestions and search results.
func DisplayRun(m models.MasterRow) string {
	labels := make([]string, 0, len(m.VariableInfo))
	for _, label := range m.VariableInfo {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	display := fmt.Sprintf("%s: %s by %s in %s",
		m.GameName, m.CategoryName,
		strings.Join(m.Players.Names(), ", "),
		utils.FormatDuration(m.IGT))
	if len(labels) > 0 {
		display += " (" + strings.Join(labels, " ") + ")"
	}
	return display
}

// Warm primes the game cache for the configured games so the very first
// autocomplete interaction has something to offer.
func (s *AutocompleteService) Warm(games map[string]string) {
	for id, name := range games {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		s.gameCache.Add(key, []Choice{{Name: utils.TruncateChoiceName(name), Value: id}})
	}
	slog.Debug("Autocomplete cache warmed", slog.Int("games", len(games)))
}
