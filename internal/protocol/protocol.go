package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeCmd     = "CMD"
	TypeResult  = "RESULT"
	TypeState   = "STATE"
	TypeEvent   = "EVENT"
	TypeError   = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// Hello is the first message a UI client sends after connecting.
type Hello struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// Welcome answers a Hello with the catalog digests and the current state.
type Welcome struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	Catalogs        CatalogInfo     `json:"catalogs"`
	Pets            PetIndex        `json:"pets"`
	State           json.RawMessage `json:"state"`
	Prefs           *Prefs          `json:"prefs,omitempty"`
}

type CatalogInfo struct {
	ItemsDigest      string `json:"items_digest"`
	ActivitiesDigest string `json:"activities_digest"`
	LevelsDigest     string `json:"levels_digest"`
	PetsDigest       string `json:"pets_digest"`
	EventsDigest     string `json:"events_digest"`
}

// PetIndex maps pet name to its ordered pose image URLs.
type PetIndex map[string][]string

// Cmd is a single UI command. Arg carries the item, activity, or pet name
// for commands that take one.
type Cmd struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Cmd  string `json:"cmd"`
	Arg  string `json:"arg,omitempty"`

	Prefs *Prefs `json:"prefs,omitempty"`
}

// Command names accepted in Cmd.Cmd.
const (
	CmdSelectPet     = "SELECT_PET"
	CmdNextPose      = "NEXT_POSE"
	CmdFeed          = "FEED"
	CmdClean         = "CLEAN"
	CmdHeal          = "HEAL"
	CmdPlay          = "PLAY"
	CmdStartWork     = "START_WORK"
	CmdCancel        = "CANCEL"
	CmdToggleHosting = "TOGGLE_HOSTING"
	CmdBuy           = "BUY"
	CmdUseItem       = "USE_ITEM"
	CmdGetState      = "GET_STATE"
	CmdSetPrefs      = "SET_PREFS"
)

// Prefs is the UI-side preference record persisted alongside the state.
type Prefs struct {
	Enabled bool   `json:"enabled"`
	Top     string `json:"top,omitempty"`
	Left    string `json:"left,omitempty"`
}

// Result answers one Cmd. Code is empty on success.
type Result struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	State   json.RawMessage `json:"state,omitempty"`
}

// Event is pushed to all clients when the tick loop produced something
// worth showing (settlement, random event, hosting action).
type Event struct {
	Type    string          `json:"type"`
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	State   json.RawMessage `json:"state,omitempty"`
}
