package domain

import (
	"math"

	"github.com/karthikramasamyppm/rwa-trivia/internal/errors"
)

const maxPlayers = 2

// Game is the aggregate root of one trivia session: who plays, the ordered
// answer log, per-player statistics, whose turn is next and, once decided,
// the winner.
type Game struct {
	id      string
	options GameOptions
	players []string

	GameOver         bool
	PlayerQnAs       []PlayerQnA
	Stats            map[string]Stat
	NextTurnPlayerID string
	WinnerPlayerID   string
	Status           GameStatus

	// Unix milliseconds, maintained by the service layer.
	CreatedAt int64
	TurnAt    int64
}

// GameOption configures optional fields at construction, typically when a
// game is rebuilt from its persisted document.
type GameOption func(*Game)

func WithID(id string) GameOption {
	return func(g *Game) { g.id = id }
}

func WithSecondPlayer(playerID string) GameOption {
	return func(g *Game) {
		if playerID != "" && g.players[0] != playerID {
			g.players = append(g.players, playerID)
		}
	}
}

func WithStatus(s GameStatus) GameOption {
	return func(g *Game) { g.Status = s }
}

func WithNextTurnPlayer(playerID string) GameOption {
	return func(g *Game) { g.NextTurnPlayerID = playerID }
}

func WithGameOver(over bool) GameOption {
	return func(g *Game) { g.GameOver = over }
}

func WithWinner(playerID string) GameOption {
	return func(g *Game) { g.WinnerPlayerID = playerID }
}

func WithPlayerQnAs(qnas []PlayerQnA) GameOption {
	return func(g *Game) { g.PlayerQnAs = qnas }
}

func WithStats(stats map[string]Stat) GameOption {
	return func(g *Game) {
		for id, s := range stats {
			g.Stats[id] = s
		}
	}
}

func WithCreatedAt(millis int64) GameOption {
	return func(g *Game) { g.CreatedAt = millis }
}

func WithTurnAt(millis int64) GameOption {
	return func(g *Game) { g.TurnAt = millis }
}

// NewGame creates a game with a founding player. The options value is fixed
// for the lifetime of the game.
func NewGame(options GameOptions, founderID string, opts ...GameOption) (*Game, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if founderID == "" {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("founder player id is empty"))
	}

	g := &Game{
		options: options,
		players: []string{founderID},
		Status:  StatusStarted,
		Stats:   make(map[string]Stat),
	}

	for _, opt := range opts {
		opt(g)
	}

	if !g.Status.valid() {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid game status: %q", g.Status))
	}
	if g.options.PlayerMode == PlayerModeSingle && len(g.players) > 1 {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("single player game cannot have %d players", len(g.players)))
	}
	if g.WinnerPlayerID != "" && !g.IsPlayer(g.WinnerPlayerID) {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("winner %q is not a player", g.WinnerPlayerID))
	}
	for _, qna := range g.PlayerQnAs {
		if !g.IsPlayer(qna.PlayerID) {
			return nil, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("answer log references non-player %q", qna.PlayerID))
		}
	}
	for id := range g.Stats {
		if !g.IsPlayer(id) {
			return nil, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("stats reference non-player %q", id))
		}
	}

	if len(g.Stats) == 0 {
		g.GenerateDefaultStats()
	}

	return g, nil
}

func (g *Game) ID() string           { return g.id }
func (g *Game) Options() GameOptions { return g.options }
func (g *Game) PlayerIDs() []string  { return g.players }

// SetID assigns the persisted identifier. It is set once, at first store.
func (g *Game) SetID(id string) {
	if g.id == "" {
		g.id = id
	}
}

func (g *Game) IsPlayer(playerID string) bool {
	for _, id := range g.players {
		if id == playerID {
			return true
		}
	}
	return false
}

// AddPlayer joins a second player. Joining a game the player is already in
// is a no-op.
func (g *Game) AddPlayer(playerID string) error {
	if playerID == "" {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("player id is empty"))
	}
	if g.IsPlayer(playerID) {
		return nil
	}
	if g.options.PlayerMode == PlayerModeSingle {
		return errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("cannot join a single player game"))
	}
	if len(g.players) >= maxPlayers {
		return errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("game is full: game=%s", g.id))
	}

	g.players = append(g.players, playerID)
	if _, ok := g.Stats[playerID]; !ok {
		g.Stats[playerID] = Stat{}
	}
	return nil
}

// AddQuestion appends an unanswered entry to the answer log and returns it.
func (g *Game) AddQuestion(playerID, questionID string) (*PlayerQnA, error) {
	if !g.IsPlayer(playerID) {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("player %q is not in game %s", playerID, g.id))
	}
	if questionID == "" {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("question id is empty"))
	}

	g.PlayerQnAs = append(g.PlayerQnAs, PlayerQnA{
		PlayerID:   playerID,
		QuestionID: questionID,
	})
	return &g.PlayerQnAs[len(g.PlayerQnAs)-1], nil
}

// RecordAnswer fills in the first log entry matching the player/question
// pair. The question must have been issued first.
func (g *Game) RecordAnswer(playerID, questionID, answerID string, seconds float64, correct bool) (*PlayerQnA, error) {
	qna := g.findQnA(playerID, questionID)
	if qna == nil {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("question was not issued: player=%s question=%s", playerID, questionID))
	}

	qna.PlayerAnswerID = answerID
	qna.PlayerAnswerInSeconds = seconds
	qna.AnswerCorrect = &correct
	return qna, nil
}

// ReportQuestion flags the matching log entry's question as reported.
func (g *Game) ReportQuestion(playerID, questionID string) error {
	qna := g.findQnA(playerID, questionID)
	if qna == nil {
		return errors.New(errors.CodeNotFound,
			errors.WithMessagef("question was not issued: player=%s question=%s", playerID, questionID))
	}

	qna.IsReported = true
	return nil
}

func (g *Game) findQnA(playerID, questionID string) *PlayerQnA {
	for i := range g.PlayerQnAs {
		if g.PlayerQnAs[i].PlayerID == playerID && g.PlayerQnAs[i].QuestionID == questionID {
			return &g.PlayerQnAs[i]
		}
	}
	return nil
}

// CalculateStat recomputes the player's snapshot from the answer log and
// overwrites the stored one. Only answered entries count: an issued but
// unanswered question is neither a lost round nor part of the average.
func (g *Game) CalculateStat(playerID string) error {
	if !g.IsPlayer(playerID) {
		return errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("player %q is not in game %s", playerID, g.id))
	}

	var stat Stat
	var answered int
	var totalSeconds float64
	for _, qna := range g.PlayerQnAs {
		if qna.PlayerID != playerID || !qna.Answered() {
			continue
		}
		answered++
		totalSeconds += qna.PlayerAnswerInSeconds
		if qna.Correct() {
			stat.Score++
		} else {
			stat.Round++
		}
	}
	if answered > 0 {
		stat.AvgAnsTime = int(math.Floor(totalSeconds / float64(answered)))
	}

	g.Stats[playerID] = stat
	return nil
}

// GenerateDefaultStats seeds a zero snapshot for every current player.
func (g *Game) GenerateDefaultStats() {
	for _, id := range g.players {
		g.Stats[id] = Stat{}
	}
}

// DecideNextTurn applies one answered question to the turn state machine:
// a correct answer keeps the turn with the answering player, an incorrect
// one passes it, and in opponent mode the status additionally tracks the
// matchmaking or invitation handshake.
func (g *Game) DecideNextTurn(qna PlayerQnA, userID string) error {
	if g.options.PlayerMode != PlayerModeOpponent {
		g.NextTurnPlayerID = userID
		return nil
	}

	switch g.options.OpponentType {
	case OpponentTypeRandom:
		if g.Status.friendOnly() {
			return errors.New(errors.CodeFailedPrecondition,
				errors.WithMessagef("status %q is invalid for a random opponent game", g.Status))
		}
		return g.decideNextTurnRandom(qna, userID)
	case OpponentTypeFriend:
		if g.Status.randomOnly() {
			return errors.New(errors.CodeFailedPrecondition,
				errors.WithMessagef("status %q is invalid for a friend game", g.Status))
		}
		return g.decideNextTurnFriend(qna, userID)
	}
	return nil
}

func (g *Game) decideNextTurnRandom(qna PlayerQnA, userID string) error {
	if qna.Correct() {
		g.NextTurnPlayerID = userID
		return nil
	}

	// A lone founder missing at STARTED opens the game for a random
	// opponent; no second player exists yet, so the lookup stays out of
	// this branch.
	if g.Status == StatusStarted {
		g.NextTurnPlayerID = ""
		g.Status = StatusAvailableForOpponent
		return nil
	}

	other, err := g.otherPlayer(userID)
	if err != nil {
		return err
	}
	switch g.Status {
	case StatusRestarted:
		g.Status = StatusWaitingForRandomPlayerInvitationAcceptance
	case StatusJoinedGame, StatusWaitingForRandomPlayerInvitationAcceptance:
		g.Status = StatusWaitingForNextQ
	}
	g.NextTurnPlayerID = other
	return nil
}

func (g *Game) decideNextTurnFriend(qna PlayerQnA, userID string) error {
	if qna.Correct() {
		g.NextTurnPlayerID = userID
		return nil
	}

	other, err := g.otherPlayer(userID)
	if err != nil {
		return err
	}
	switch g.Status {
	case StatusStarted:
		g.Status = StatusWaitingForFriendInvitationAcceptance
	case StatusWaitingForFriendInvitationAcceptance, StatusRestarted:
		g.Status = StatusWaitingForNextQ
	}
	g.NextTurnPlayerID = other
	return nil
}

func (g *Game) otherPlayer(userID string) (string, error) {
	if len(g.players) < maxPlayers {
		return "", errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("opponent game has a single player: game=%s", g.id))
	}
	for _, id := range g.players {
		if id != userID {
			return id, nil
		}
	}
	return "", errors.New(errors.CodeFailedPrecondition,
		errors.WithMessagef("player %q is not in game %s", userID, g.id))
}

// DecideWinner records the winner. Random opponent games go to the higher
// score, with ties going to the later joiner. Every other mode hands the
// win to the founding player.
func (g *Game) DecideWinner() error {
	if g.options.PlayerMode == PlayerModeOpponent && g.options.OpponentType == OpponentTypeRandom {
		if len(g.players) < maxPlayers {
			return errors.New(errors.CodeFailedPrecondition,
				errors.WithMessagef("opponent game has a single player: game=%s", g.id))
		}

		s0, ok0 := g.Stats[g.players[0]]
		s1, ok1 := g.Stats[g.players[1]]
		if !ok0 || !ok1 {
			return errors.New(errors.CodeFailedPrecondition,
				errors.WithMessagef("missing player statistics: game=%s", g.id))
		}

		if s0.Score > s1.Score {
			g.WinnerPlayerID = g.players[0]
		} else {
			g.WinnerPlayerID = g.players[1]
		}
		return nil
	}

	g.WinnerPlayerID = g.players[0]
	return nil
}

// Finish decides the winner and marks the game over. A finished game is no
// longer mutated.
func (g *Game) Finish() error {
	if g.GameOver {
		return errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("game is already over: game=%s", g.id))
	}
	if err := g.DecideWinner(); err != nil {
		return err
	}

	g.GameOver = true
	return nil
}

// Restart reopens a finished game with the same players, options and answer
// log. The founding player takes the next turn.
func (g *Game) Restart() {
	g.Status = StatusRestarted
	g.GameOver = false
	g.WinnerPlayerID = ""
	g.NextTurnPlayerID = g.players[0]
}
