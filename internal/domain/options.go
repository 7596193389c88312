package domain

import (
	"github.com/karthikramasamyppm/rwa-trivia/internal/errors"
)

// PlayerMode selects how many players a game is played with.
type PlayerMode int8

const (
	PlayerModeSingle PlayerMode = iota
	PlayerModeOpponent
)

func (m PlayerMode) String() string {
	switch m {
	case PlayerModeSingle:
		return "Single"
	case PlayerModeOpponent:
		return "Opponent"
	}
	return "Unknown"
}

func (m PlayerMode) valid() bool {
	return m == PlayerModeSingle || m == PlayerModeOpponent
}

// OpponentType selects how the second player is found: matchmaking against
// a stranger (Random) or a direct invitation (Friend). Only meaningful when
// the mode is Opponent.
type OpponentType int8

const (
	OpponentTypeRandom OpponentType = iota
	OpponentTypeFriend
)

func (t OpponentType) String() string {
	switch t {
	case OpponentTypeRandom:
		return "Random"
	case OpponentTypeFriend:
		return "Friend"
	}
	return "Unknown"
}

func (t OpponentType) valid() bool {
	return t == OpponentTypeRandom || t == OpponentTypeFriend
}

// GameOptions is the immutable configuration a game is created with.
// Fields beyond PlayerMode and OpponentType are carried for collaborators
// (question selection) and never interpreted by the game itself.
type GameOptions struct {
	PlayerMode   PlayerMode   `json:"playerMode"`
	OpponentType OpponentType `json:"opponentType"`
	CategoryIDs  []int64      `json:"categoryIds,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	MaxQuestions int          `json:"maxQuestions,omitempty"`
}

func (o GameOptions) Validate() error {
	if !o.PlayerMode.valid() {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid player mode: %d", o.PlayerMode))
	}
	if o.PlayerMode == PlayerModeOpponent && !o.OpponentType.valid() {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid opponent type: %d", o.OpponentType))
	}
	return nil
}
