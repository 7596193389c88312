//go:build integration_test

package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/karthikramasamyppm/rwa-trivia/internal/api"
	"github.com/karthikramasamyppm/rwa-trivia/internal/domain"
)

const baseURL = "http://localhost:8080/v1"

// TestHeadToHead plays a full random-opponent game against a running
// server: Alice opens a game by missing her first question, Bob joins via
// matchmaking, both trade answers and the game is finished.
func TestHeadToHead(t *testing.T) {
	wg := new(sync.WaitGroup)

	// Watch Bob's turn notifications.
	subscribeAsUser(t, makeRedis(t), wg, "bob")

	// Alice starts a game and misses, opening it for an opponent.
	var created domain.Document
	post(t, "/games", api.CreateGameRequest{
		PlayerMode:   domain.PlayerModeOpponent,
		OpponentType: domain.OpponentTypeRandom,
		FounderID:    "alice",
	}, &created)
	gameID := created.ID

	post(t, fmt.Sprintf("/games/%s/questions", gameID), api.IssueQuestionRequest{
		PlayerID:   "alice",
		QuestionID: "q1",
	}, nil)

	var answered api.SubmitAnswerResponse
	put(t, fmt.Sprintf("/games/%s/answers", gameID), api.SubmitAnswerRequest{
		PlayerID:        "alice",
		QuestionID:      "q1",
		AnswerID:        "a1",
		AnswerInSeconds: 7,
		Correct:         false,
	}, &answered)
	require.Equal(t, domain.StatusAvailableForOpponent, answered.Status)

	// Bob picks it up through matchmaking.
	var joined domain.Document
	post(t, "/games/join-random", api.JoinRandomGameRequest{PlayerID: "bob"}, &joined)
	require.Equal(t, gameID, joined.ID)

	// Bob answers correctly, keeping the turn.
	post(t, fmt.Sprintf("/games/%s/questions", gameID), api.IssueQuestionRequest{
		PlayerID:   "bob",
		QuestionID: "q2",
	}, nil)
	put(t, fmt.Sprintf("/games/%s/answers", gameID), api.SubmitAnswerRequest{
		PlayerID:        "bob",
		QuestionID:      "q2",
		AnswerID:        "a3",
		AnswerInSeconds: 4,
		Correct:         true,
	}, &answered)
	require.Equal(t, "bob", answered.NextTurnPlayerID)

	var done domain.Document
	post(t, fmt.Sprintf("/games/%s/finish", gameID), nil, &done)
	require.True(t, done.GameOver)
	t.Logf("winner: %s", done.WinnerPlayerID)

	time.Sleep(2 * time.Second)
	wg.Wait()
}

func post(t *testing.T, path string, body, out any) {
	do(t, http.MethodPost, path, body, out)
}

func put(t *testing.T, path string, body, out any) {
	do(t, http.MethodPut, path, body, out)
}

func do(t *testing.T, method, path string, body, out any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, baseURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Less(t, resp.StatusCode, 300, "request %s %s failed", method, path)

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

func subscribeAsUser(t *testing.T, rc redis.UniversalClient, wg *sync.WaitGroup, u string) {
	wg.Add(1)
	sub := subscribeRedis(t, rc, fmt.Sprintf("local:pubsub:user:%s", u))
	go func() {
		defer wg.Done()

		for msg := range sub {
			var n struct {
				Event string          `json:"event"`
				Data  json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				t.Logf("unmarshal notification: %v", err)
				continue
			}

			switch n.Event {
			case domain.EventNameGameTurnChanged:
				var tc api.TurnChange
				if err := json.Unmarshal(n.Data, &tc); err != nil {
					t.Logf("unmarshal turn change: %v", err)
					continue
				}
				t.Logf("%s notified: next turn in game %s is %s", u, tc.GameID, tc.NextTurnPlayerID)

			case domain.EventNameGameOver:
				var g api.GameOver
				if err := json.Unmarshal(n.Data, &g); err != nil {
					t.Logf("unmarshal game over: %v", err)
					continue
				}
				t.Logf("%s notified: game %s won by %s", u, g.GameID, g.WinnerPlayerID)
			}
		}
	}()
}

func subscribeRedis(t *testing.T, rc redis.UniversalClient, pattern string) <-chan *redis.Message {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := rc.PSubscribe(ctx, pattern)
	t.Cleanup(func() { sub.Close() })

	c := make(chan *redis.Message)
	go func() {
		defer close(c)

		for {
			msg, err := sub.ReceiveMessage(ctx)
			if err != nil {
				t.Log(err)
				return
			}

			c <- msg
		}
	}()

	return c
}

func makeRedis(t *testing.T) redis.UniversalClient {
	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{"localhost:6379"},
	})
	t.Cleanup(func() { r.Close() })

	return r
}
