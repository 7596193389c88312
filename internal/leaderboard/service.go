package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/karthikramasamyppm/rwa-trivia/internal/domain"
	"github.com/karthikramasamyppm/rwa-trivia/internal/errors"
	"github.com/karthikramasamyppm/rwa-trivia/internal/event"
)

const (
	publishInterval = 200 * time.Millisecond

	defaultTopPlayers = 10
)

type Config struct {
	EventBus *event.Bus
	Redis    redis.UniversalClient
	Prefix   string
}

// Service ranks players by games won. Wins accrue from game-over events;
// the ranking lives in a redis sorted set.
type Service struct {
	eb     *event.Bus
	redis  redis.UniversalClient
	prefix string
}

func NewService(c Config) *Service {
	s := &Service{
		eb:     c.EventBus,
		redis:  c.Redis,
		prefix: c.Prefix,
	}

	s.eb.Subscribe(domain.EventNameGameOver, func(ctx context.Context, e event.Event) error {
		return s.RecordWin(ctx, e.(domain.EventGameOver))
	})

	return s
}

type TopPlayersRequest struct {
	Limit int64
}

// TopPlayers returns the highest ranked players and their win counts.
func (s *Service) TopPlayers(ctx context.Context, req TopPlayersRequest) (*domain.Leaderboard, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultTopPlayers
	}

	res, err := s.redis.ZRevRangeWithScores(ctx, s.winsKey(), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}

	if len(res) == 0 {
		return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("leaderboard is empty"))
	}

	entries := make([]domain.LeaderboardEntry, 0, len(res))
	for _, z := range res {
		entries = append(entries, domain.LeaderboardEntry{
			PlayerID: z.Member.(string),
			Wins:     decimal.NewFromFloat(z.Score),
		})
	}

	return &domain.Leaderboard{Entries: entries}, nil
}

// RecordWin adds the finished game to the winner's tally.
func (s *Service) RecordWin(ctx context.Context, e domain.EventGameOver) error {
	if e.WinnerPlayerID == "" {
		return fmt.Errorf("game over without a winner: game=%s", e.GameID)
	}

	if err := s.redis.ZIncrBy(ctx, s.winsKey(), 1, e.WinnerPlayerID).Err(); err != nil {
		return fmt.Errorf("record win: %w", err)
	}

	return s.schedulePublishLeaderboard(ctx)
}

// schedulePublishLeaderboard publishes the leaderboard changes after a
// certain interval. Many games finish in a short time, so publishing on an
// interval instead of per event reduces the number of published events.
func (s *Service) schedulePublishLeaderboard(ctx context.Context) error {
	// A simple way to prevent multiple instances of the service from
	// publishing the leaderboard at once.
	ok, err := s.redis.SetNX(ctx, s.publishTimeKey(), time.Now().UnixMilli(), publishInterval).Result()
	if err != nil {
		return fmt.Errorf("setnx: %w", err)
	}

	if !ok {
		return nil
	}

	return s.publishLeaderboard(ctx)
}

func (s *Service) publishLeaderboard(ctx context.Context) error {
	l, err := s.TopPlayers(ctx, TopPlayersRequest{})
	if err != nil {
		return fmt.Errorf("get leaderboard failed: %w", err)
	}

	s.eb.Publish(ctx, domain.EventLeaderboardUpdated{
		Leaderboard: *l,
	})

	return s.redis.Set(ctx, s.publishTimeKey(), time.Now().UnixMilli(), publishInterval).Err()
}

func (s *Service) winsKey() string {
	return fmt.Sprintf("%s:wins", s.prefix)
}

func (s *Service) publishTimeKey() string {
	return fmt.Sprintf("%s:wins:time", s.prefix)
}
