package domain

import (
	"encoding/json"
	"sort"

	"github.com/karthikramasamyppm/rwa-trivia/internal/errors"
)

// Document is the flat persisted shape of a game. Besides the playerIds
// list, each player id is flattened to an indexed playerId_N field so a
// storage collaborator can query games by member.
type Document struct {
	ID               string          `json:"id,omitempty"`
	GameOptions      GameOptions     `json:"gameOptions"`
	PlayerIDs        []string        `json:"playerIds"`
	PlayerID0        string          `json:"playerId_0,omitempty"`
	PlayerID1        string          `json:"playerId_1,omitempty"`
	GameOver         bool            `json:"gameOver"`
	PlayerQnAs       QnALog          `json:"playerQnAs"`
	NextTurnPlayerID string          `json:"nextTurnPlayerId"`
	Status           GameStatus      `json:"GameStatus"`
	Stats            map[string]Stat `json:"stats"`
	WinnerPlayerID   string          `json:"winnerPlayerId,omitempty"`
	CreatedAt        int64           `json:"createdAt,omitempty"`
	TurnAt           int64           `json:"turnAt,omitempty"`
}

// QnALog is the persisted answer log. Stored documents hold a list, but
// older documents keyed the entries by arbitrary ids, so loading accepts
// either form and flattens to a list.
type QnALog []PlayerQnA

func (l *QnALog) UnmarshalJSON(b []byte) error {
	var list []PlayerQnA
	if err := json.Unmarshal(b, &list); err == nil {
		*l = list
		return nil
	}

	var keyed map[string]PlayerQnA
	if err := json.Unmarshal(b, &keyed); err != nil {
		return err
	}

	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list = make([]PlayerQnA, 0, len(keyed))
	for _, k := range keys {
		list = append(list, keyed[k])
	}
	*l = list
	return nil
}

// Document dumps the game into its persisted shape, applying the stored
// defaults: an empty next turn and a STARTED status.
func (g *Game) Document() *Document {
	doc := &Document{
		ID:               g.id,
		GameOptions:      g.options,
		PlayerIDs:        append([]string(nil), g.players...),
		GameOver:         g.GameOver,
		PlayerQnAs:       append(QnALog(nil), g.PlayerQnAs...),
		NextTurnPlayerID: g.NextTurnPlayerID,
		Status:           g.Status,
		Stats:            make(map[string]Stat, len(g.Stats)),
		WinnerPlayerID:   g.WinnerPlayerID,
		CreatedAt:        g.CreatedAt,
		TurnAt:           g.TurnAt,
	}

	if doc.Status == "" {
		doc.Status = StatusStarted
	}
	for id, s := range g.Stats {
		doc.Stats[id] = s
	}

	doc.PlayerID0 = g.players[0]
	if len(g.players) > 1 {
		doc.PlayerID1 = g.players[1]
	}

	return doc
}

// GameFromDocument rebuilds the aggregate from its persisted shape. The
// first player id is the founder, a second one the later joiner. Stored
// stats are rehydrated verbatim; documents without stats get zero stats
// for every player.
func GameFromDocument(doc *Document) (*Game, error) {
	if len(doc.PlayerIDs) == 0 {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("document has no players: game=%s", doc.ID))
	}

	status := doc.Status
	if status == "" {
		status = StatusStarted
	}

	opts := []GameOption{
		WithID(doc.ID),
		WithStatus(status),
		WithNextTurnPlayer(doc.NextTurnPlayerID),
		WithGameOver(doc.GameOver),
		WithPlayerQnAs(append([]PlayerQnA(nil), doc.PlayerQnAs...)),
		WithCreatedAt(doc.CreatedAt),
		WithTurnAt(doc.TurnAt),
	}
	if len(doc.PlayerIDs) > 1 {
		opts = append(opts, WithSecondPlayer(doc.PlayerIDs[1]))
	}
	if doc.WinnerPlayerID != "" {
		opts = append(opts, WithWinner(doc.WinnerPlayerID))
	}
	if len(doc.Stats) > 0 {
		opts = append(opts, WithStats(doc.Stats))
	}

	return NewGame(doc.GameOptions, doc.PlayerIDs[0], opts...)
}
