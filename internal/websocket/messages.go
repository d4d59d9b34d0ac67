package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionStart Action = "start"
	ActionAsk   Action = "ask"
	ActionState Action = "state"
	ActionPing  Action = "ping"
)

// AskRequest is the client request shape. Question is only read for the
// ask action; the other actions carry no payload.
type AskRequest struct {
	Action   Action `json:"action"`
	Question string `json:"question"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError       Event = "error"
	EventGameStarted Event = "game_started"
	EventTurn        Event = "turn"
	EventState       Event = "state"
	EventPong        Event = "pong"
)

// GameStartedResponse announces a fresh game. The subject stays hidden.
type GameStartedResponse struct {
	Event Event       `json:"event"`
	Game  interface{} `json:"game"`
}

// TurnResponse carries one turn's outcome, tagged by kind.
type TurnResponse struct {
	Event   Event       `json:"event"`
	Kind    string      `json:"kind"`
	Outcome interface{} `json:"outcome"`
}

// StateResponse reports current game progress for resynchronizing clients.
type StateResponse struct {
	Event Event       `json:"event"`
	State interface{} `json:"state"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
