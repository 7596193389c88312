package api

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/karthikramasamyppm/rwa-trivia/internal/domain"
)

const maxConcurrent = 100

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	TurnChange struct {
		GameID           string `json:"gameId"`
		NextTurnPlayerID string `json:"nextTurnPlayerId"`
	}

	GameOver struct {
		GameID         string `json:"gameId"`
		WinnerPlayerID string `json:"winnerPlayerId"`
	}
)

// PublishTurnChanged notifies every player of the game whose turn it is
// now, so a waiting client can prompt its user.
func (a *API) PublishTurnChanged(ctx context.Context, e domain.EventGameTurnChanged) error {
	data := TurnChange{
		GameID:           e.GameID,
		NextTurnPlayerID: e.NextTurnPlayerID,
	}

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for _, player := range e.PlayerIDs {
		player := player
		eg.Go(func() error {
			return a.publishNotification(ctx, player, e.Name(), data)
		})
	}

	return eg.Wait()
}

// PublishGameOver notifies every player of the final result.
func (a *API) PublishGameOver(ctx context.Context, e domain.EventGameOver) error {
	data := GameOver{
		GameID:         e.GameID,
		WinnerPlayerID: e.WinnerPlayerID,
	}

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for _, player := range e.PlayerIDs {
		player := player
		eg.Go(func() error {
			return a.publishNotification(ctx, player, e.Name(), data)
		})
	}

	return eg.Wait()
}

func (a *API) publishNotification(ctx context.Context, user, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, fmt.Sprintf("%s:user:%s", a.prefix, user), b).Err()
}
