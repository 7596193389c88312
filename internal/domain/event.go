package domain

import "github.com/shopspring/decimal"

const (
	EventNameGameCreated        = "game.created"
	EventNameGameStatusChanged  = "game.status_changed"
	EventNameGameTurnChanged    = "game.turn_changed"
	EventNameGameOver           = "game.over"
	EventNameLeaderboardUpdated = "leaderboard.updated"
)

type EventGameCreated struct {
	GameID    string
	FounderID string
	Options   GameOptions
}

func (EventGameCreated) Name() string { return EventNameGameCreated }

type EventGameStatusChanged struct {
	GameID string
	Status GameStatus
}

func (EventGameStatusChanged) Name() string { return EventNameGameStatusChanged }

type EventGameTurnChanged struct {
	GameID           string
	NextTurnPlayerID string
	PlayerIDs        []string
}

func (EventGameTurnChanged) Name() string { return EventNameGameTurnChanged }

type EventGameOver struct {
	GameID         string
	WinnerPlayerID string
	PlayerIDs      []string
}

func (EventGameOver) Name() string { return EventNameGameOver }

// Leaderboard ranks players by games won across all finished games,
// sorted by wins in descending order.
type Leaderboard struct {
	Entries []LeaderboardEntry
}

type LeaderboardEntry struct {
	PlayerID string
	Wins     decimal.Decimal
}

type EventLeaderboardUpdated struct {
	Leaderboard Leaderboard
}

func (EventLeaderboardUpdated) Name() string { return EventNameLeaderboardUpdated }
