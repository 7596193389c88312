package leaderboard_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/karthikramasamyppm/rwa-trivia/internal/domain"
	"github.com/karthikramasamyppm/rwa-trivia/internal/event"
	"github.com/karthikramasamyppm/rwa-trivia/internal/leaderboard"
)

func TestService_RecordWin(t *testing.T) {
	s := makeService(t)

	gameOver := func(gameID, winner string) domain.EventGameOver {
		return domain.EventGameOver{
			GameID:         gameID,
			WinnerPlayerID: winner,
			PlayerIDs:      []string{"u1", "u2"},
		}
	}

	require.NoError(t, s.RecordWin(context.Background(), gameOver("g1", "u1")))
	require.NoError(t, s.RecordWin(context.Background(), gameOver("g2", "u1")))
	require.NoError(t, s.RecordWin(context.Background(), gameOver("g3", "u2")))

	resp, err := s.TopPlayers(context.Background(), leaderboard.TopPlayersRequest{})
	require.NoError(t, err)

	want := &domain.Leaderboard{
		Entries: []domain.LeaderboardEntry{
			{PlayerID: "u1", Wins: decimal.NewFromInt(2)},
			{PlayerID: "u2", Wins: decimal.NewFromInt(1)},
		},
	}
	require.Equal(t, want, resp)
}

func TestService_RecordWin_NoWinner(t *testing.T) {
	s := makeService(t)

	err := s.RecordWin(context.Background(), domain.EventGameOver{GameID: "g1"})
	require.Error(t, err)
}

func TestService_TopPlayers_Limit(t *testing.T) {
	s := makeService(t)

	for _, winner := range []string{"u1", "u1", "u2", "u3"} {
		require.NoError(t, s.RecordWin(context.Background(), domain.EventGameOver{
			GameID:         "g",
			WinnerPlayerID: winner,
		}))
	}

	resp, err := s.TopPlayers(context.Background(), leaderboard.TopPlayersRequest{Limit: 1})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	require.Equal(t, "u1", resp.Entries[0].PlayerID)
}

func TestService_PublishLeaderboardUpdated(t *testing.T) {
	type (
		inputs struct {
			receivedEvents []domain.EventGameOver
		}

		outputs struct {
			publishedEvents []domain.EventLeaderboardUpdated
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"should publish leaderboard.updated after a game ends": {
			arrange: func() inputs {
				return inputs{
					receivedEvents: []domain.EventGameOver{
						{GameID: "g1", WinnerPlayerID: "u1"},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.publishedEvents, 1, "should receive 1 leaderboard updated event")
				require.Equal(t, domain.Leaderboard{
					Entries: []domain.LeaderboardEntry{
						{PlayerID: "u1", Wins: decimal.NewFromInt(1)},
					},
				}, out.publishedEvents[0].Leaderboard)
			},
		},

		"should publish 1 event for games finishing within the publish interval": {
			arrange: func() inputs {
				return inputs{
					receivedEvents: []domain.EventGameOver{
						{GameID: "g1", WinnerPlayerID: "u1"},
						{GameID: "g2", WinnerPlayerID: "u2"},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.publishedEvents, 1, "should receive 1 leaderboard updated event")
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in, out := tt.arrange(), outputs{}

			eb := event.NewBus()

			var mu sync.Mutex
			eb.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
				mu.Lock()
				out.publishedEvents = append(out.publishedEvents, e.(domain.EventLeaderboardUpdated))
				mu.Unlock()
				return nil
			})

			s := makeService(t, withEventBus(eb))

			for _, e := range in.receivedEvents {
				err := s.RecordWin(context.Background(), e)
				require.NoError(t, err)
			}

			eb.Stop()

			mu.Lock()
			defer mu.Unlock()
			tt.assert(t, out)
		})
	}
}

func makeService(t *testing.T, opts ...options) *leaderboard.Service {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	c := leaderboard.Config{
		EventBus: event.NewBus(),
		Redis:    rc,
		Prefix:   "test",
	}

	for _, opt := range opts {
		opt(&c)
	}

	return leaderboard.NewService(c)
}

type options func(c *leaderboard.Config)

func withEventBus(eb *event.Bus) options {
	return func(c *leaderboard.Config) {
		c.EventBus = eb
	}
}
