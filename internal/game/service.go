package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/karthikramasamyppm/rwa-trivia/internal/domain"
	"github.com/karthikramasamyppm/rwa-trivia/internal/errors"
	"github.com/karthikramasamyppm/rwa-trivia/internal/event"
)

type Config struct {
	EventBus *event.Bus
	Store    Store

	// NowFunc overrides the clock in tests.
	NowFunc func() time.Time
}

// Service owns the game lifecycle: every mutating operation loads the
// persisted document, rebuilds the aggregate, applies one transition and
// writes the next document back with a compare-and-swap.
type Service struct {
	eb    *event.Bus
	store Store
	now   func() time.Time
}

func NewService(c Config) *Service {
	now := c.NowFunc
	if now == nil {
		now = time.Now
	}

	return &Service{
		eb:    c.EventBus,
		store: c.Store,
		now:   now,
	}
}

// CreateGameRequest represents a request to start a new game.
type CreateGameRequest struct {
	Options   domain.GameOptions
	FounderID string
	// FriendID is the invited opponent, only used for friend games.
	FriendID string
}

// CreateGame starts a game with the founding player on turn.
func (s *Service) CreateGame(ctx context.Context, req CreateGameRequest) (*domain.Game, error) {
	now := s.now().UnixMilli()
	opts := []domain.GameOption{
		domain.WithNextTurnPlayer(req.FounderID),
		domain.WithCreatedAt(now),
		domain.WithTurnAt(now),
	}
	if req.FriendID != "" {
		if req.Options.PlayerMode != domain.PlayerModeOpponent || req.Options.OpponentType != domain.OpponentTypeFriend {
			return nil, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("a friend can only be invited to a friend game"))
		}
		opts = append(opts, domain.WithSecondPlayer(req.FriendID))
	}

	g, err := domain.NewGame(req.Options, req.FounderID, opts...)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate game ID: %w", err)
	}
	g.SetID(id.String())

	if err := s.store.Create(ctx, g.Document()); err != nil {
		return nil, err
	}

	s.eb.Publish(ctx, domain.EventGameCreated{
		GameID:    g.ID(),
		FounderID: req.FounderID,
		Options:   g.Options(),
	})

	return g, nil
}

type GetGameRequest struct {
	GameID string
}

func (s *Service) GetGame(ctx context.Context, req GetGameRequest) (*domain.Game, error) {
	g, _, err := s.load(ctx, req.GameID)
	return g, err
}

type JoinGameRequest struct {
	GameID   string
	PlayerID string
}

// JoinGame enters a second player into an open game. Joining a game the
// player is already in is a no-op; the joiner takes the next turn.
func (s *Service) JoinGame(ctx context.Context, req JoinGameRequest) (*domain.Game, error) {
	g, version, err := s.load(ctx, req.GameID)
	if err != nil {
		return nil, err
	}

	if g.IsPlayer(req.PlayerID) {
		return g, nil
	}
	if g.GameOver {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("game is over: game=%s", req.GameID))
	}
	if !g.Status.Joinable() {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("game is not open for joining: game=%s status=%s", req.GameID, g.Status))
	}

	if err := g.AddPlayer(req.PlayerID); err != nil {
		return nil, err
	}
	g.Status = domain.StatusJoinedGame
	g.NextTurnPlayerID = req.PlayerID
	g.TurnAt = s.now().UnixMilli()

	if err := s.store.Save(ctx, g.Document(), version); err != nil {
		return nil, err
	}

	s.eb.Publish(ctx, domain.EventGameStatusChanged{GameID: g.ID(), Status: g.Status})
	s.eb.Publish(ctx, domain.EventGameTurnChanged{
		GameID:           g.ID(),
		NextTurnPlayerID: g.NextTurnPlayerID,
		PlayerIDs:        g.PlayerIDs(),
	})

	return g, nil
}

type RestartGameRequest struct {
	GameID   string
	PlayerID string
}

// RestartGame reopens a finished game for its players.
func (s *Service) RestartGame(ctx context.Context, req RestartGameRequest) (*domain.Game, error) {
	g, version, err := s.load(ctx, req.GameID)
	if err != nil {
		return nil, err
	}

	if !g.IsPlayer(req.PlayerID) {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("player %q is not in game %s", req.PlayerID, req.GameID))
	}
	if !g.GameOver {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("only a finished game can be restarted: game=%s", req.GameID))
	}

	g.Restart()
	g.TurnAt = s.now().UnixMilli()

	if err := s.store.Save(ctx, g.Document(), version); err != nil {
		return nil, err
	}

	s.eb.Publish(ctx, domain.EventGameStatusChanged{GameID: g.ID(), Status: g.Status})

	return g, nil
}

type IssueQuestionRequest struct {
	GameID     string
	PlayerID   string
	QuestionID string
}

// IssueQuestion appends an unanswered entry for a question posed to the
// player. Question selection itself belongs to a collaborator; ids are
// opaque here.
func (s *Service) IssueQuestion(ctx context.Context, req IssueQuestionRequest) (*domain.PlayerQnA, error) {
	g, version, err := s.load(ctx, req.GameID)
	if err != nil {
		return nil, err
	}

	if g.GameOver {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("game is over: game=%s", req.GameID))
	}

	qna, err := g.AddQuestion(req.PlayerID, req.QuestionID)
	if err != nil {
		return nil, err
	}
	g.TurnAt = s.now().UnixMilli()

	if err := s.store.Save(ctx, g.Document(), version); err != nil {
		return nil, err
	}

	return qna, nil
}

type SubmitAnswerRequest struct {
	GameID          string
	PlayerID        string
	QuestionID      string
	AnswerID        string
	AnswerInSeconds float64
	Correct         bool
}

type SubmitAnswerResponse struct {
	QnA              domain.PlayerQnA
	Stat             domain.Stat
	NextTurnPlayerID string
	Status           domain.GameStatus
}

// SubmitAnswer records the player's answer, recomputes that player's
// statistics and advances the turn state machine, all within one document
// write.
func (s *Service) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	g, version, err := s.load(ctx, req.GameID)
	if err != nil {
		return nil, err
	}

	if g.GameOver {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("game is over: game=%s", req.GameID))
	}

	qna, err := g.RecordAnswer(req.PlayerID, req.QuestionID, req.AnswerID, req.AnswerInSeconds, req.Correct)
	if err != nil {
		return nil, err
	}
	if err := g.CalculateStat(req.PlayerID); err != nil {
		return nil, err
	}

	prevStatus, prevTurn := g.Status, g.NextTurnPlayerID
	if err := g.DecideNextTurn(*qna, req.PlayerID); err != nil {
		return nil, err
	}
	g.TurnAt = s.now().UnixMilli()

	if err := s.store.Save(ctx, g.Document(), version); err != nil {
		return nil, err
	}

	if g.Status != prevStatus {
		s.eb.Publish(ctx, domain.EventGameStatusChanged{GameID: g.ID(), Status: g.Status})
	}
	if g.NextTurnPlayerID != prevTurn {
		s.eb.Publish(ctx, domain.EventGameTurnChanged{
			GameID:           g.ID(),
			NextTurnPlayerID: g.NextTurnPlayerID,
			PlayerIDs:        g.PlayerIDs(),
		})
	}

	return &SubmitAnswerResponse{
		QnA:              *qna,
		Stat:             g.Stats[req.PlayerID],
		NextTurnPlayerID: g.NextTurnPlayerID,
		Status:           g.Status,
	}, nil
}

type ReportQuestionRequest struct {
	GameID     string
	PlayerID   string
	QuestionID string
}

// ReportQuestion flags a question as abusive or broken.
func (s *Service) ReportQuestion(ctx context.Context, req ReportQuestionRequest) error {
	g, version, err := s.load(ctx, req.GameID)
	if err != nil {
		return err
	}

	if err := g.ReportQuestion(req.PlayerID, req.QuestionID); err != nil {
		return err
	}

	return s.store.Save(ctx, g.Document(), version)
}

type FinishGameRequest struct {
	GameID string
}

// FinishGame decides the winner and closes the game.
func (s *Service) FinishGame(ctx context.Context, req FinishGameRequest) (*domain.Game, error) {
	g, version, err := s.load(ctx, req.GameID)
	if err != nil {
		return nil, err
	}

	if err := g.Finish(); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, g.Document(), version); err != nil {
		return nil, err
	}

	s.eb.Publish(ctx, domain.EventGameOver{
		GameID:         g.ID(),
		WinnerPlayerID: g.WinnerPlayerID,
		PlayerIDs:      g.PlayerIDs(),
	})

	return g, nil
}

func (s *Service) load(ctx context.Context, gameID string) (*domain.Game, uint64, error) {
	if gameID == "" {
		return nil, 0, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("game id is empty"))
	}

	doc, version, err := s.store.Get(ctx, gameID)
	if err != nil {
		return nil, 0, err
	}

	g, err := domain.GameFromDocument(doc)
	if err != nil {
		return nil, 0, err
	}

	return g, version, nil
}
