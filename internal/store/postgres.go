package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/domwatch/dominance-bot/internal/metrics"
	"github.com/domwatch/dominance-bot/internal/model"
)

// PostgresStore keeps each document as a jsonb row in a single table. The
// write path is a whole-document upsert, matching the file store's
// last-write-wins semantics.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed document store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the documents table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS documents (
			name       TEXT PRIMARY KEY,
			body       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

func (s *PostgresStore) LoadBook(ctx context.Context) (*model.Book, error) {
	book := model.NewBook()
	s.loadDoc(ctx, DocPortfolios, book)
	if book.Users == nil {
		book.Users = make(map[int64]*model.User)
	}
	return book, nil
}

func (s *PostgresStore) SaveBook(ctx context.Context, book *model.Book) error {
	return s.saveDoc(ctx, DocPortfolios, book)
}

func (s *PostgresStore) LoadSettings(ctx context.Context) (*model.Settings, error) {
	settings := &model.Settings{}
	s.loadDoc(ctx, DocSettings, settings)
	return settings, nil
}

func (s *PostgresStore) SaveSettings(ctx context.Context, settings *model.Settings) error {
	return s.saveDoc(ctx, DocSettings, settings)
}

// loadDoc decodes the named document into v, leaving v untouched when the
// row is missing or the body does not decode.
func (s *PostgresStore) loadDoc(ctx context.Context, name string, v any) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM documents WHERE name = $1`, name).Scan(&body)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			slog.Warn("document read failed, using defaults", "doc", name, "err", err)
			metrics.PersistenceErrorsTotal.Inc()
		}
		return
	}
	if err := json.Unmarshal(body, v); err != nil {
		slog.Warn("document is malformed, using defaults", "doc", name, "err", err)
		metrics.PersistenceErrorsTotal.Inc()
	}
}

func (s *PostgresStore) saveDoc(ctx context.Context, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (name, body, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		name, body)
	if err != nil {
		metrics.PersistenceErrorsTotal.Inc()
	}
	return err
}
