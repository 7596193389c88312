package game

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karthikramasamyppm/rwa-trivia/internal/domain"
	"github.com/karthikramasamyppm/rwa-trivia/internal/errors"
)

// Store persists game documents. Save is a compare-and-swap on the version
// read by Get: two players answering the same game concurrently race on the
// version, the loser gets an Aborted error and retries against the fresh
// document.
type Store interface {
	Create(ctx context.Context, doc *domain.Document) error
	Get(ctx context.Context, gameID string) (*domain.Document, uint64, error)
	Save(ctx context.Context, doc *domain.Document, version uint64) error
}

// PGStore stores each game as a JSONB document in a games table:
//
//	CREATE TABLE games (
//	    game_id UUID PRIMARY KEY,
//	    version BIGINT NOT NULL,
//	    doc     JSONB  NOT NULL
//	);
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, doc *domain.Document) error {
	const stmt = `INSERT INTO games (game_id, version, doc) VALUES ($1, 1, $2);`

	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, stmt, doc.ID, b)

	var pgErr *pgconn.PgError
	const codeUniqueViolation = "23505"
	if stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("game already exists: game=%s", doc.ID),
			errors.WithCause(err))
	}

	return err
}

func (s *PGStore) Get(ctx context.Context, gameID string) (*domain.Document, uint64, error) {
	const stmt = `SELECT doc, version FROM games WHERE game_id = $1;`

	var (
		b       []byte
		version uint64
	)
	err := s.db.QueryRow(ctx, stmt, gameID).Scan(&b, &version)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, 0, errors.New(errors.CodeNotFound,
			errors.WithMessagef("game not found: game=%s", gameID))
	}
	if err != nil {
		return nil, 0, err
	}

	var doc domain.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, 0, err
	}

	return &doc, version, nil
}

func (s *PGStore) Save(ctx context.Context, doc *domain.Document, version uint64) error {
	const stmt = `UPDATE games SET doc = $2, version = version + 1 WHERE game_id = $1 AND version = $3;`

	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, stmt, doc.ID, b, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.CodeAborted,
			errors.WithMessagef("game was updated concurrently: game=%s", doc.ID))
	}

	return nil
}
