package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/karthikramasamyppm/rwa-trivia/internal/domain"
	"github.com/karthikramasamyppm/rwa-trivia/internal/errors"
	"github.com/karthikramasamyppm/rwa-trivia/internal/event"
	"github.com/karthikramasamyppm/rwa-trivia/internal/game"
	"github.com/karthikramasamyppm/rwa-trivia/internal/leaderboard"
	"github.com/karthikramasamyppm/rwa-trivia/internal/matchmaking"
)

type Config struct {
	Router       gin.IRouter
	EventBus     *event.Bus
	Game         *game.Service
	Matchmaking  *matchmaking.Service
	Leaderboard  *leaderboard.Service
	Redis        Redis
	PubsubPrefix string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	gs *game.Service
	ms *matchmaking.Service
	ls *leaderboard.Service

	redis  Redis
	prefix string
}

func New(c Config) *API {
	a := &API{
		gs:     c.Game,
		ms:     c.Matchmaking,
		ls:     c.Leaderboard,
		redis:  c.Redis,
		prefix: c.PubsubPrefix,
	}

	// HTTP APIs
	v1 := c.Router.Group("/v1")
	v1.POST("/games", a.CreateGame)
	v1.GET("/games/:id", a.GetGame)
	v1.POST("/games/:id/players", a.JoinGame)
	v1.POST("/games/:id/restart", a.RestartGame)
	v1.POST("/games/:id/questions", a.IssueQuestion)
	v1.PUT("/games/:id/answers", a.SubmitAnswer)
	v1.POST("/games/:id/reports", a.ReportQuestion)
	v1.POST("/games/:id/finish", a.FinishGame)
	v1.POST("/games/join-random", a.JoinRandomGame)
	v1.GET("/leaderboard", a.TopPlayers)

	// Register event handlers
	c.EventBus.Subscribe(domain.EventNameGameTurnChanged, func(ctx context.Context, e event.Event) error {
		return a.PublishTurnChanged(ctx, e.(domain.EventGameTurnChanged))
	})
	c.EventBus.Subscribe(domain.EventNameGameOver, func(ctx context.Context, e event.Event) error {
		return a.PublishGameOver(ctx, e.(domain.EventGameOver))
	})

	return a
}

type CreateGameRequest struct {
	PlayerMode   domain.PlayerMode   `json:"playerMode"`
	OpponentType domain.OpponentType `json:"opponentType"`
	CategoryIDs  []int64             `json:"categoryIds"`
	Tags         []string            `json:"tags"`
	MaxQuestions int                 `json:"maxQuestions"`
	FounderID    string              `json:"founderId" binding:"required"`
	FriendID     string              `json:"friendId"`
}

func (a *API) CreateGame(c *gin.Context) {
	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	g, err := a.gs.CreateGame(c.Request.Context(), game.CreateGameRequest{
		Options: domain.GameOptions{
			PlayerMode:   req.PlayerMode,
			OpponentType: req.OpponentType,
			CategoryIDs:  req.CategoryIDs,
			Tags:         req.Tags,
			MaxQuestions: req.MaxQuestions,
		},
		FounderID: req.FounderID,
		FriendID:  req.FriendID,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, g.Document())
}

func (a *API) GetGame(c *gin.Context) {
	g, err := a.gs.GetGame(c.Request.Context(), game.GetGameRequest{GameID: c.Param("id")})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, g.Document())
}

type JoinGameRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
}

func (a *API) JoinGame(c *gin.Context) {
	var req JoinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	g, err := a.gs.JoinGame(c.Request.Context(), game.JoinGameRequest{
		GameID:   c.Param("id"),
		PlayerID: req.PlayerID,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, g.Document())
}

type RestartGameRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
}

func (a *API) RestartGame(c *gin.Context) {
	var req RestartGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	g, err := a.gs.RestartGame(c.Request.Context(), game.RestartGameRequest{
		GameID:   c.Param("id"),
		PlayerID: req.PlayerID,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, g.Document())
}

type IssueQuestionRequest struct {
	PlayerID   string `json:"playerId" binding:"required"`
	QuestionID string `json:"questionId" binding:"required"`
}

func (a *API) IssueQuestion(c *gin.Context) {
	var req IssueQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	qna, err := a.gs.IssueQuestion(c.Request.Context(), game.IssueQuestionRequest{
		GameID:     c.Param("id"),
		PlayerID:   req.PlayerID,
		QuestionID: req.QuestionID,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, qna)
}

type SubmitAnswerRequest struct {
	PlayerID        string  `json:"playerId" binding:"required"`
	QuestionID      string  `json:"questionId" binding:"required"`
	AnswerID        string  `json:"answerId"`
	AnswerInSeconds float64 `json:"answerInSeconds"`
	Correct         bool    `json:"correct"`
}

type SubmitAnswerResponse struct {
	QnA              domain.PlayerQnA  `json:"playerQnA"`
	Stat             domain.Stat       `json:"stat"`
	NextTurnPlayerID string            `json:"nextTurnPlayerId"`
	Status           domain.GameStatus `json:"GameStatus"`
}

func (a *API) SubmitAnswer(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	resp, err := a.gs.SubmitAnswer(c.Request.Context(), game.SubmitAnswerRequest{
		GameID:          c.Param("id"),
		PlayerID:        req.PlayerID,
		QuestionID:      req.QuestionID,
		AnswerID:        req.AnswerID,
		AnswerInSeconds: req.AnswerInSeconds,
		Correct:         req.Correct,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, SubmitAnswerResponse{
		QnA:              resp.QnA,
		Stat:             resp.Stat,
		NextTurnPlayerID: resp.NextTurnPlayerID,
		Status:           resp.Status,
	})
}

type ReportQuestionRequest struct {
	PlayerID   string `json:"playerId" binding:"required"`
	QuestionID string `json:"questionId" binding:"required"`
}

func (a *API) ReportQuestion(c *gin.Context) {
	var req ReportQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	err := a.gs.ReportQuestion(c.Request.Context(), game.ReportQuestionRequest{
		GameID:     c.Param("id"),
		PlayerID:   req.PlayerID,
		QuestionID: req.QuestionID,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (a *API) FinishGame(c *gin.Context) {
	g, err := a.gs.FinishGame(c.Request.Context(), game.FinishGameRequest{GameID: c.Param("id")})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, g.Document())
}

type JoinRandomGameRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
}

func (a *API) JoinRandomGame(c *gin.Context) {
	var req JoinRandomGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	g, err := a.ms.JoinRandomGame(c.Request.Context(), matchmaking.JoinRandomGameRequest{
		PlayerID: req.PlayerID,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, g.Document())
}

type TopPlayersResponse struct {
	Entries []TopPlayersEntry `json:"entries"`
}

type TopPlayersEntry struct {
	PlayerID string `json:"playerId"`
	Wins     int64  `json:"wins"`
}

func (a *API) TopPlayers(c *gin.Context) {
	l, err := a.ls.TopPlayers(c.Request.Context(), leaderboard.TopPlayersRequest{})
	if err != nil {
		abort(c, err)
		return
	}

	resp := TopPlayersResponse{
		Entries: make([]TopPlayersEntry, 0, len(l.Entries)),
	}
	for _, e := range l.Entries {
		resp.Entries = append(resp.Entries, TopPlayersEntry{
			PlayerID: e.PlayerID,
			Wins:     e.Wins.IntPart(),
		})
	}

	c.JSON(http.StatusOK, resp)
}

func abort(c *gin.Context, err error) {
	e := errors.Convert(err)
	c.AbortWithStatusJSON(e.HTTPStatusCode(), e)
}
