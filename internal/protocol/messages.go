package protocol

import "encoding/json"

// Client -> Server
// identify:
//   clientId: string
//
// claim_seat:
//   seatId: number
//   clientId: string
//
// vote:
//   party: string (option label, not index)
//
// finish_round:
//   seatId: number
//   score: 0-100

// Server -> Client
// restore_session:
//   seatId: number
//   name: string
//   phase: "LOGIN" | "VOTE" | "GAME" | "RESULTS"
//   round_info: RoundConfig
//   map_data: number[30] (only when a map exists)
//
// login_success:
//   seatId: number
//   name: string
//
// game_reset: {}
//
// round_setup:
//   config: RoundConfig
//
// seat_map_update:
//   taken_seats: number[]
//
// error:
//   message: string
//
// phase_change:
//   phase: string
//   map_data: number[30]      (GAME only)
//   leaderboard: Entry[]      (RESULTS only)

const (
	KindIdentify    = "identify"
	KindClaimSeat   = "claim_seat"
	KindVote        = "vote"
	KindFinishRound = "finish_round"

	KindRestoreSession = "restore_session"
	KindLoginSuccess   = "login_success"
	KindGameReset      = "game_reset"
	KindRoundSetup     = "round_setup"
	KindSeatMapUpdate  = "seat_map_update"
	KindError          = "error"
	KindPhaseChange    = "phase_change"
	KindGameOver       = "game_over"
	KindKicked         = "kicked_by_admin"
)

// Phase values carried by restore_session and phase_change.
const (
	PhaseLogin   = "LOGIN"
	PhaseVote    = "VOTE"
	PhaseGame    = "GAME"
	PhaseResults = "RESULTS"
)

// Admin channel (practice server only).
const (
	KindAdminNext   = "action_next"
	KindAdminKick   = "kick_player"
	KindAdminReset  = "reset_game"
	KindAdminUpdate = "admin_update"
)

// RoundConfig is replaced wholesale on every round_setup; it is never
// partially updated.
type RoundConfig struct {
	ID       string    `json:"id"`
	Question string    `json:"question"`
	Options  [2]string `json:"options"`
	Colors   [2]string `json:"colors"`
	Icons    [2]string `json:"icons"`
}

type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Round int    `json:"round"`
}

type ClientMessage struct {
	Type     string `json:"type"`
	ClientID string `json:"clientId,omitempty"`
	SeatID   *int   `json:"seatId,omitempty"`
	Party    string `json:"party,omitempty"`
	Score    *int   `json:"score,omitempty"`
}

type ServerMessage struct {
	Type        string             `json:"type"`
	SeatID      *int               `json:"seatId,omitempty"`
	Name        string             `json:"name,omitempty"`
	Phase       string             `json:"phase,omitempty"`
	MapData     []int              `json:"map_data,omitempty"`
	RoundInfo   *RoundConfig       `json:"round_info,omitempty"`
	Config      *RoundConfig       `json:"config,omitempty"`
	TakenSeats  []int              `json:"taken_seats,omitempty"`
	Leaderboard []LeaderboardEntry `json:"leaderboard,omitempty"`
	Message     string             `json:"message,omitempty"`
}

// AdminMessage covers both directions of the admin channel.
type AdminMessage struct {
	Type        string         `json:"type"`
	SeatID      *int           `json:"seat_id,omitempty"`
	Phase       string         `json:"phase,omitempty"`
	RoundID     string         `json:"round_id,omitempty"`
	RoundIndex  int            `json:"round_index,omitempty"`
	TotalRounds int            `json:"total_rounds,omitempty"`
	PlayerCount int            `json:"player_count,omitempty"`
	Players     []AdminPlayer  `json:"players,omitempty"`
	Votes       map[string]int `json:"votes,omitempty"`
	CanProgress bool           `json:"can_progress,omitempty"`
	RoundInfo   *RoundConfig   `json:"round_info,omitempty"`
}

type AdminPlayer struct {
	Seat       int    `json:"seat"`
	Name       string `json:"name"`
	TotalScore int    `json:"total_score"`
	RoundScore int    `json:"round_score"`
	Online     bool   `json:"online"`
	HasVoted   bool   `json:"has_voted"`
}

func DecodeServer(data []byte) (ServerMessage, error) {
	var m ServerMessage
	err := json.Unmarshal(data, &m)
	return m, err
}

func DecodeClient(data []byte) (ClientMessage, error) {
	var m ClientMessage
	err := json.Unmarshal(data, &m)
	return m, err
}

// Int is a convenience for the pointer fields above.
func Int(v int) *int { return &v }
