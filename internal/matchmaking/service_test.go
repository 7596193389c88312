package matchmaking_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/karthikramasamyppm/rwa-trivia/internal/domain"
	"github.com/karthikramasamyppm/rwa-trivia/internal/errors"
	"github.com/karthikramasamyppm/rwa-trivia/internal/event"
	"github.com/karthikramasamyppm/rwa-trivia/internal/game"
	"github.com/karthikramasamyppm/rwa-trivia/internal/matchmaking"
)

func TestService_TrackGame(t *testing.T) {
	s, _ := makeService(t)

	err := s.TrackGame(context.Background(), domain.EventGameStatusChanged{
		GameID: "g1",
		Status: domain.StatusAvailableForOpponent,
	})
	require.NoError(t, err)

	open, err := s.OpenGames(context.Background(), matchmaking.OpenGamesRequest{})
	require.NoError(t, err)
	require.Equal(t, []string{"g1"}, open)

	err = s.TrackGame(context.Background(), domain.EventGameStatusChanged{
		GameID: "g1",
		Status: domain.StatusJoinedGame,
	})
	require.NoError(t, err)

	open, err = s.OpenGames(context.Background(), matchmaking.OpenGamesRequest{})
	require.NoError(t, err)
	require.Empty(t, open)
}

func TestService_JoinRandomGame(t *testing.T) {
	ctx := context.Background()
	s, gs := makeService(t)

	// Alice opens a game for a random opponent by missing her first answer.
	g, err := gs.CreateGame(ctx, game.CreateGameRequest{
		Options: domain.GameOptions{
			PlayerMode:   domain.PlayerModeOpponent,
			OpponentType: domain.OpponentTypeRandom,
		},
		FounderID: "alice",
	})
	require.NoError(t, err)

	_, err = gs.IssueQuestion(ctx, game.IssueQuestionRequest{GameID: g.ID(), PlayerID: "alice", QuestionID: "q1"})
	require.NoError(t, err)
	_, err = gs.SubmitAnswer(ctx, game.SubmitAnswerRequest{
		GameID:     g.ID(),
		PlayerID:   "alice",
		QuestionID: "q1",
		Correct:    false,
	})
	require.NoError(t, err)

	require.NoError(t, s.TrackGame(ctx, domain.EventGameStatusChanged{
		GameID: g.ID(),
		Status: domain.StatusAvailableForOpponent,
	}))

	// Alice cannot be matched against herself.
	_, err = s.JoinRandomGame(ctx, matchmaking.JoinRandomGameRequest{PlayerID: "alice"})
	require.True(t, errors.IsCode(err, errors.CodeNotFound))

	joined, err := s.JoinRandomGame(ctx, matchmaking.JoinRandomGameRequest{PlayerID: "bob"})
	require.NoError(t, err)
	require.Equal(t, g.ID(), joined.ID())
	require.Equal(t, []string{"alice", "bob"}, joined.PlayerIDs())
	require.Equal(t, domain.StatusJoinedGame, joined.Status)
}

func TestService_JoinRandomGame_StalePoolEntry(t *testing.T) {
	ctx := context.Background()
	s, _ := makeService(t)

	// The pool references a game the store no longer knows.
	require.NoError(t, s.TrackGame(ctx, domain.EventGameStatusChanged{
		GameID: "gone",
		Status: domain.StatusAvailableForOpponent,
	}))

	_, err := s.JoinRandomGame(ctx, matchmaking.JoinRandomGameRequest{PlayerID: "bob"})
	require.True(t, errors.IsCode(err, errors.CodeNotFound))

	open, err := s.OpenGames(ctx, matchmaking.OpenGamesRequest{})
	require.NoError(t, err)
	require.Empty(t, open, "stale entry should be dropped")
}

func makeService(t *testing.T) (*matchmaking.Service, *game.Service) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	eb := event.NewBus()
	gs := game.NewService(game.Config{
		EventBus: eb,
		Store:    game.NewMemStore(),
	})

	s := matchmaking.NewService(matchmaking.Config{
		EventBus: eb,
		Game:     gs,
		Redis:    rc,
		Prefix:   "test",
	})

	return s, gs
}
