package srcom

import "encoding/json"

// Payload shapes for the speedrun.com REST API v1. Only the fields the
// cache consumes are declared.

type GameNames struct {
	International string `json:"international"`
}

type Game struct {
	ID    string    `json:"id"`
	Names GameNames `json:"names"`
}

// Player is one entry of a run's player list. Registered users carry an id
// (and, when embedded, display info); guests only carry a free-text name.
type Player struct {
	Rel      string     `json:"rel"`
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Names    *GameNames `json:"names,omitempty"`
	Pronouns string     `json:"pronouns"`
	Assets   *Assets    `json:"assets,omitempty"`
}

type Assets struct {
	Image struct {
		URI string `json:"uri"`
	} `json:"image"`
}

// PlayerList accepts both shapes the API serves: a plain array on bare run
// fetches and a {"data": [...]} wrapper when players are embedded.
type PlayerList struct {
	Data []Player
}

func (p *PlayerList) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, &p.Data)
	}
	var wrapped struct {
		Data []Player `json:"data"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	p.Data = wrapped.Data
	return nil
}

type RunTimes struct {
	RealtimeT float64 `json:"realtime_t"`
	IngameT   float64 `json:"ingame_t"`
}

type RunStatus struct {
	Status     string `json:"status"`
	Examiner   string `json:"examiner"`
	VerifyDate string `json:"verify-date"`
	Reason     string `json:"reason"`
}

type RunVideos struct {
	Links []struct {
		URI string `json:"uri"`
	} `json:"links"`
}

type Run struct {
	ID       string            `json:"id"`
	Game     string            `json:"game"`
	Category string            `json:"category"`
	Players  PlayerList        `json:"players"`
	Date     string            `json:"date"`
	Times    RunTimes          `json:"times"`
	Values   map[string]string `json:"values"`
	Status   RunStatus         `json:"status"`
	Videos   *RunVideos        `json:"videos"`
	Comment  string            `json:"comment"`
}

type VariableChoice struct {
	Label string `json:"label"`
}

type VariableValues struct {
	Values map[string]VariableChoice `json:"values"`
}

type Variable struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Category string         `json:"category"`
	Values   VariableValues `json:"values"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type pageLink struct {
	Rel string `json:"rel"`
	URI string `json:"uri"`
}

type pagination struct {
	Offset int        `json:"offset"`
	Max    int        `json:"max"`
	Size   int        `json:"size"`
	Links  []pageLink `json:"links"`
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *pagination     `json:"pagination"`
}
