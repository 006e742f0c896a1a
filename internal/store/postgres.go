package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlink-web/internal/shortener"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint.
const uniqueViolation = "23505"

const schema = `
	CREATE TABLE IF NOT EXISTS short_links (
		short_id     TEXT PRIMARY KEY,
		original_url TEXT NOT NULL,
		url_hash     TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS short_links_url_hash_key ON short_links (url_hash);
`

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the short_links table and its unique URL index.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schema)

	return err
}

func (p *PostgresStore) FindByURL(ctx context.Context, url string) (*shortener.ShortLink, error) {
	return p.findByHash(ctx, shortener.HashURL(url))
}

func (p *PostgresStore) FindByShortID(ctx context.Context, id shortener.ShortID) (*shortener.ShortLink, error) {
	query := `
		SELECT short_id, original_url, url_hash, created_at
		FROM short_links
		WHERE short_id = $1
	`

	return scanLink(p.pool.QueryRow(ctx, query, string(id)))
}

// Insert relies on the unique url_hash index: when the URL is already
// stored, nothing is written and the existing row is returned.
func (p *PostgresStore) Insert(ctx context.Context, link *shortener.ShortLink) (*shortener.ShortLink, error) {
	hash := link.URLHash
	if hash == "" {
		hash = shortener.HashURL(link.OriginalURL)
	}

	query := `
		INSERT INTO short_links (short_id, original_url, url_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (url_hash) DO NOTHING
		RETURNING short_id, original_url, url_hash, created_at
	`

	stored, err := scanLink(p.pool.QueryRow(ctx, query,
		string(link.ShortID),
		link.OriginalURL,
		string(hash),
		link.CreatedAt,
	))
	if errors.Is(err, shortener.ErrNotFound) {
		return p.findByHash(ctx, hash)
	}

	// The url_hash conflict is absorbed above, so a unique violation here
	// can only come from the primary key.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, shortener.ErrDuplicateID
	}

	return stored, err
}

// Ping checks PostgreSQL connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) findByHash(ctx context.Context, hash shortener.URLHash) (*shortener.ShortLink, error) {
	query := `
		SELECT short_id, original_url, url_hash, created_at
		FROM short_links
		WHERE url_hash = $1
	`

	return scanLink(p.pool.QueryRow(ctx, query, string(hash)))
}

func scanLink(row pgx.Row) (*shortener.ShortLink, error) {
	var (
		link        shortener.ShortLink
		id, urlHash string
	)

	err := row.Scan(&id, &link.OriginalURL, &urlHash, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	link.ShortID = shortener.ShortID(id)
	link.URLHash = shortener.URLHash(urlHash)

	return &link, nil
}

var _ shortener.Repository = (*PostgresStore)(nil)
