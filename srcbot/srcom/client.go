// Package srcom is the HTTP adapter for the speedrun.com REST API. It
// resolves pagination and primary-key duplicates internally; callers always
// see a finite, deduplicated sequence of records.
package srcom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://www.speedrun.com/api/v1"
	pageSize       = 200
)

// FetchError is a non-success response from the API, annotated with the
// status code the server returned.
type FetchError struct {
	StatusCode int
	URL        string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("speedrun.com request failed with status %d (%s)", e.StatusCode, e.URL)
}

type Config struct {
	BaseURL   string `toml:"base_url"`
	UserAgent string `toml:"user_agent"`
}

type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		baseURL:   baseURL,
		userAgent: cfg.UserAgent,
	}
}

// SearchGames looks games up by name. Used by the interactive game
// autocomplete, so only the first page is fetched.
func (c *Client) SearchGames(ctx context.Context, name string) ([]Game, error) {
	env, err := c.get(ctx, c.baseURL+"/games?"+url.Values{"name": {name}}.Encode())
	if err != nil {
		return nil, err
	}
	return decodeData[Game](env)
}

// GameByID fetches a single game record.
func (c *Client) GameByID(ctx context.Context, gameID string) (Game, error) {
	env, err := c.get(ctx, c.baseURL+"/games/"+url.PathEscape(gameID))
	if err != nil {
		return Game{}, err
	}
	var game Game
	if err := json.Unmarshal(env.Data, &game); err != nil {
		return Game{}, fmt.Errorf("decode game: %w", err)
	}
	return game, nil
}

// AllRuns fetches every run for a game with player data embedded,
// fully paginated and deduplicated by run id. API-intensive; meant for the
// infrequent resync, not interactive paths.
func (c *Client) AllRuns(ctx context.Context, gameID string) ([]Run, error) {
	params := url.Values{
		"game":      {gameID},
		"max":       {strconv.Itoa(pageSize)},
		"orderby":   {"date"},
		"direction": {"desc"},
		"embed":     {"players"},
	}
	runs, err := fetchAll[Run](ctx, c, c.baseURL+"/runs?"+params.Encode())
	if err != nil {
		return nil, err
	}
	return dedupeRuns(runs), nil
}

// AllVariables fetches every variable declared for a game.
func (c *Client) AllVariables(ctx context.Context, gameID string) ([]Variable, error) {
	params := url.Values{"max": {strconv.Itoa(pageSize)}}
	return fetchAll[Variable](ctx, c, c.baseURL+"/games/"+url.PathEscape(gameID)+"/variables?"+params.Encode())
}

// AllCategories fetches every category of a game. The payload omits the
// game id; the caller attaches it.
func (c *Client) AllCategories(ctx context.Context, gameID string) ([]Category, error) {
	params := url.Values{"max": {strconv.Itoa(pageSize)}}
	return fetchAll[Category](ctx, c, c.baseURL+"/games/"+url.PathEscape(gameID)+"/categories?"+params.Encode())
}

func (c *Client) get(ctx context.Context, rawURL string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{StatusCode: resp.StatusCode, URL: rawURL}
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &env, nil
}

func decodeData[T any](env *envelope) ([]T, error) {
	var out []T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, fmt.Errorf("decode response data: %w", err)
	}
	return out, nil
}

// fetchAll walks the pagination links until the API serves a short page or
// stops offering a next link.
func fetchAll[T any](ctx context.Context, c *Client, firstURL string) ([]T, error) {
	var all []T
	pageURL := firstURL
	for {
		env, err := c.get(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		page, err := decodeData[T](env)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		if env.Pagination == nil || env.Pagination.Size < env.Pagination.Max {
			return all, nil
		}
		next := ""
		for _, link := range env.Pagination.Links {
			if link.Rel == "next" {
				next = link.URI
				break
			}
		}
		if next == "" {
			return all, nil
		}
		pageURL = next
	}
}

// dedupeRuns drops later duplicates of the same run id. The API sometimes
// repeats entries across page boundaries.
func dedupeRuns(runs []Run) []Run {
	seen := make(map[string]struct{}, len(runs))
	out := runs[:0]
	for _, run := range runs {
		if _, ok := seen[run.ID]; ok {
			continue
		}
		seen[run.ID] = struct{}{}
		out = append(out, run)
	}
	return out
}
