package main

import "encoding/json"

// Client -> Server message types
const (
	MsgRequestJoin  = "request_join"
	MsgMove         = "move"
	MsgCaptureClick = "capture_click"
	MsgRegister     = "register"
	MsgLogin        = "login"
	MsgAuth         = "auth" // resume session from a stored token
	MsgProfile      = "profile"
	MsgLeaderboard  = "leaderboard"
)

// Server -> Client message types
const (
	MsgMapUpdate       = "map_update"
	MsgPlayerUpdate    = "player_update"
	MsgPlayerCount     = "player_count"
	MsgScoreUpdate     = "score_update"
	MsgTileProgress    = "tile_progress"
	MsgCountdown       = "countdown" // 3, 2, 1, "GO!", then null to clear
	MsgTeamAssigned    = "team_assigned"
	MsgNotification    = "notification"
	MsgGameOver        = "game_over"
	MsgResetGame       = "reset_game"
	MsgAuthOK          = "auth_ok"
	MsgProfileData     = "profile_data"
	MsgLeaderboardData = "leaderboard_data"
	MsgError           = "error"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t" msgpack:"t"`
	Data interface{} `json:"d,omitempty" msgpack:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// MoveMsg is the target coordinate of a relocation request
type MoveMsg struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// TileState is one entry of the full map broadcast, keyed "q,r"
type TileState struct {
	Q      int    `json:"q" msgpack:"q"`
	R      int    `json:"r" msgpack:"r"`
	Owner  string `json:"owner" msgpack:"owner"`
	Clicks int    `json:"current_clicks" msgpack:"current_clicks"`
}

// MapState is the full tile map broadcast, keyed "q,r"
type MapState map[string]TileState

// PlayerState is one entry of the roster broadcast
type PlayerState struct {
	ID     string `json:"id"`
	Name   string `json:"n,omitempty"`
	Q      int    `json:"q"`
	R      int    `json:"r"`
	Team   string `json:"team"`
	Status string `json:"status"` // "spectating" or "playing"
}

// ScoreMsg carries cumulative team scores
type ScoreMsg struct {
	Red  int `json:"red"`
	Blue int `json:"blue"`
}

// TileProgressMsg is the incremental capture update for one contested tile
type TileProgressMsg struct {
	Key      string `json:"key"`
	Clicks   int    `json:"clicks"`
	Required int    `json:"required"`
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates an existing account
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg resumes a session from a stored token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms registration/login/resume
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"pid"`
}

// ProfileDataMsg carries account stats
type ProfileDataMsg struct {
	Username string `json:"username"`
	Captures int    `json:"captures"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Matches  int    `json:"matches"`
}

// ErrorMsg sends an error to the client. Auth paths only; rejected
// gameplay actions are dropped silently.
type ErrorMsg struct {
	Msg string `json:"msg"`
}
