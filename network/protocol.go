package network

import "encoding/json"

// Inbound message types.
const (
	MsgTypeAuth         = "auth"
	MsgTypeFindOpponent = "find_opponent"
	MsgTypeMakeBet      = "make_bet"
	MsgTypeCancelSearch = "cancel_search"
	MsgTypePing         = "ping"
)

// Outbound message types.
const (
	MsgTypeAuthSuccess          = "auth_success"
	MsgTypeSearching            = "searching"
	MsgTypeOpponentFound        = "opponent_found"
	MsgTypeTimerUpdate          = "timer_update"
	MsgTypeBetMade              = "bet_made"
	MsgTypeCoinFlipStart        = "coin_flip_start"
	MsgTypeGameResult           = "game_result"
	MsgTypeOpponentDisconnected = "opponent_disconnected"
	MsgTypeStatsUpdate          = "stats_update"
	MsgTypePong                 = "pong"
	MsgTypeError                = "error"
)

// Envelope is the flat inbound message. Only the fields relevant to Type are set.
type Envelope struct {
	Type      string  `json:"type"`
	PlayerID  string  `json:"playerId,omitempty"`
	Balance   *int64  `json:"balance,omitempty"`
	BetAmount float64 `json:"betAmount,omitempty"`
	Bet       string  `json:"bet,omitempty"`
}

func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

type AuthSuccess struct {
	Type       string `json:"type"`
	PlayerID   string `json:"playerId"`
	ServerTime int64  `json:"serverTime"`
}

type Searching struct {
	Type          string `json:"type"`
	QueuePosition int    `json:"queuePosition"`
	BetAmount     int64  `json:"betAmount"`
}

type OpponentInfo struct {
	ID      string `json:"id"`
	Balance int64  `json:"balance"`
}

type OpponentFound struct {
	Type      string       `json:"type"`
	RoomID    string       `json:"roomId"`
	BetAmount int64        `json:"betAmount"`
	Timer     int          `json:"timer"`
	Opponent  OpponentInfo `json:"opponent"`
}

type TimerUpdate struct {
	Type  string `json:"type"`
	Timer int    `json:"timer"`
}

type BetMade struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Bet      string `json:"bet"`
}

type CoinFlipStart struct {
	Type   string `json:"type"`
	Result string `json:"result"`
}

type GameResult struct {
	Type       string           `json:"type"`
	Result     string           `json:"result"`
	Winner     string           `json:"winner"`
	WinAmount  int64            `json:"winAmount"`
	Commission int64            `json:"commission"`
	Balances   map[string]int64 `json:"balances"`
}

type OpponentDisconnected struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type StatsUpdate struct {
	Type       string `json:"type"`
	Online     int    `json:"online"`
	Rooms      int    `json:"rooms"`
	Queue      int    `json:"queue"`
	PeakOnline int    `json:"peakOnline"`
	TotalGames int64  `json:"totalGames"`
}

type Pong struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewError(message string) Error {
	return Error{Type: MsgTypeError, Message: message}
}
