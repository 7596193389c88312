package matchmaking

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/karthikramasamyppm/rwa-trivia/internal/domain"
	"github.com/karthikramasamyppm/rwa-trivia/internal/errors"
	"github.com/karthikramasamyppm/rwa-trivia/internal/event"
	"github.com/karthikramasamyppm/rwa-trivia/internal/game"
)

type Config struct {
	EventBus *event.Bus
	Game     *game.Service
	Redis    redis.UniversalClient
	Prefix   string
}

// Service keeps the pool of games waiting for a random opponent. Games
// enter the pool when their status becomes AVAILABLE_FOR_OPPONENT and leave
// it on any other status change.
type Service struct {
	eb     *event.Bus
	game   *game.Service
	redis  redis.UniversalClient
	prefix string
}

func NewService(c Config) *Service {
	s := &Service{
		eb:     c.EventBus,
		game:   c.Game,
		redis:  c.Redis,
		prefix: c.Prefix,
	}

	s.eb.Subscribe(domain.EventNameGameStatusChanged, func(ctx context.Context, e event.Event) error {
		return s.TrackGame(ctx, e.(domain.EventGameStatusChanged))
	})

	return s
}

// TrackGame updates the open-games pool from a status change.
func (s *Service) TrackGame(ctx context.Context, e domain.EventGameStatusChanged) error {
	if e.Status == domain.StatusAvailableForOpponent {
		if err := s.redis.SAdd(ctx, s.openGamesKey(), e.GameID).Err(); err != nil {
			return fmt.Errorf("track open game: %w", err)
		}
		return nil
	}

	if err := s.redis.SRem(ctx, s.openGamesKey(), e.GameID).Err(); err != nil {
		return fmt.Errorf("untrack open game: %w", err)
	}
	return nil
}

type JoinRandomGameRequest struct {
	PlayerID string
}

// JoinRandomGame picks an open game and joins the player as its opponent.
// The player's own games are skipped; a game that refuses the join is
// dropped from the pool (it lags behind the store) and the next candidate
// is tried.
func (s *Service) JoinRandomGame(ctx context.Context, req JoinRandomGameRequest) (*domain.Game, error) {
	candidates, err := s.redis.SMembers(ctx, s.openGamesKey()).Result()
	if err != nil && !stderrors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("pick open game: %w", err)
	}

	for _, gameID := range candidates {
		g, err := s.game.GetGame(ctx, game.GetGameRequest{GameID: gameID})
		if err == nil && g.IsPlayer(req.PlayerID) {
			continue
		}

		if err == nil {
			g, err = s.game.JoinGame(ctx, game.JoinGameRequest{
				GameID:   gameID,
				PlayerID: req.PlayerID,
			})
			if err == nil {
				return g, nil
			}
		}

		e := errors.Convert(err)
		if e.Code != errors.CodeNotFound && e.Code != errors.CodeFailedPrecondition {
			return nil, err
		}
		if err := s.redis.SRem(ctx, s.openGamesKey(), gameID).Err(); err != nil {
			return nil, fmt.Errorf("drop stale open game: %w", err)
		}
	}

	return nil, errors.New(errors.CodeNotFound,
		errors.WithMessagef("no games available for an opponent"))
}

type OpenGamesRequest struct{}

// OpenGames lists the games currently waiting for an opponent.
func (s *Service) OpenGames(ctx context.Context, _ OpenGamesRequest) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.openGamesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list open games: %w", err)
	}
	return ids, nil
}

func (s *Service) openGamesKey() string {
	return fmt.Sprintf("%s:open_games", s.prefix)
}
