package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/karthikramasamyppm/rwa-trivia/internal/api"
	"github.com/karthikramasamyppm/rwa-trivia/internal/domain"
	"github.com/karthikramasamyppm/rwa-trivia/internal/event"
	"github.com/karthikramasamyppm/rwa-trivia/internal/game"
	"github.com/karthikramasamyppm/rwa-trivia/internal/leaderboard"
	"github.com/karthikramasamyppm/rwa-trivia/internal/matchmaking"
)

func TestAPI_GameLifecycle(t *testing.T) {
	router := makeRouter(t)

	// Create a friend game.
	var created domain.Document
	code := do(t, router, http.MethodPost, "/v1/games", api.CreateGameRequest{
		PlayerMode:   domain.PlayerModeOpponent,
		OpponentType: domain.OpponentTypeFriend,
		FounderID:    "alice",
		FriendID:     "carol",
	}, &created)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, created.ID)
	require.Equal(t, []string{"alice", "carol"}, created.PlayerIDs)
	require.Equal(t, domain.StatusStarted, created.Status)

	// Issue and miss a question: the invitation handshake begins.
	code = do(t, router, http.MethodPost, "/v1/games/"+created.ID+"/questions", api.IssueQuestionRequest{
		PlayerID:   "alice",
		QuestionID: "q1",
	}, nil)
	require.Equal(t, http.StatusCreated, code)

	var answered api.SubmitAnswerResponse
	code = do(t, router, http.MethodPut, "/v1/games/"+created.ID+"/answers", api.SubmitAnswerRequest{
		PlayerID:        "alice",
		QuestionID:      "q1",
		AnswerID:        "a2",
		AnswerInSeconds: 5,
		Correct:         false,
	}, &answered)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, domain.StatusWaitingForFriendInvitationAcceptance, answered.Status)
	require.Equal(t, "carol", answered.NextTurnPlayerID)

	// Finish: friend games go to the founder.
	var done domain.Document
	code = do(t, router, http.MethodPost, "/v1/games/"+created.ID+"/finish", nil, &done)
	require.Equal(t, http.StatusOK, code)
	require.True(t, done.GameOver)
	require.Equal(t, "alice", done.WinnerPlayerID)

	// The stored document reflects everything.
	var got domain.Document
	code = do(t, router, http.MethodGet, "/v1/games/"+created.ID, nil, &got)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, got.PlayerQnAs, 1)
	require.Equal(t, "alice", got.PlayerID0)
	require.Equal(t, "carol", got.PlayerID1)
}

func TestAPI_GetGame_NotFound(t *testing.T) {
	router := makeRouter(t)

	code := do(t, router, http.MethodGet, "/v1/games/unknown", nil, nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestAPI_CreateGame_MissingFounder(t *testing.T) {
	router := makeRouter(t)

	code := do(t, router, http.MethodPost, "/v1/games", api.CreateGameRequest{
		PlayerMode: domain.PlayerModeSingle,
	}, nil)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestAPI_TopPlayers_Empty(t *testing.T) {
	router := makeRouter(t)

	code := do(t, router, http.MethodGet, "/v1/leaderboard", nil, nil)
	require.Equal(t, http.StatusNotFound, code)
}

func do(t *testing.T, router *gin.Engine, method, path string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if out != nil && w.Code < 300 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}

	return w.Code
}

func makeRouter(t *testing.T) *gin.Engine {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	eb := event.NewBus()
	t.Cleanup(eb.Stop)

	gs := game.NewService(game.Config{
		EventBus: eb,
		Store:    game.NewMemStore(),
	})
	ms := matchmaking.NewService(matchmaking.Config{
		EventBus: eb,
		Game:     gs,
		Redis:    rc,
		Prefix:   "test",
	})
	ls := leaderboard.NewService(leaderboard.Config{
		EventBus: eb,
		Redis:    rc,
		Prefix:   "test",
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	api.New(api.Config{
		Router:       router,
		EventBus:     eb,
		Game:         gs,
		Matchmaking:  ms,
		Leaderboard:  ls,
		Redis:        rc,
		PubsubPrefix: "test",
	})

	return router
}
