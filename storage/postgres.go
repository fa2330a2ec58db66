package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"bnbtrack/models"
)

// PostgresStore mirrors SQLiteStore for deployments that point DATABASE_URL
// at a shared Postgres instead of the local file.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("%w: parse config: %v", models.ErrStoreIO, err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: create pool: %v", models.ErrStoreIO, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", models.ErrStoreIO, err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: migrate: %v", models.ErrStoreIO, err)
	}

	return store, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id BIGINT PRIMARY KEY,
		url TEXT NOT NULL,
		duration INTEGER NOT NULL,
		daily_cost DOUBLE PRECISION NOT NULL,
		misc_cost DOUBLE PRECISION NOT NULL,
		cost DOUBLE PRECISION NOT NULL,
		location TEXT DEFAULT '',
		coordinates TEXT DEFAULT '',
		super_host BOOLEAN DEFAULT FALSE,
		capacity INTEGER DEFAULT 0,
		average_rating DOUBLE PRECISION DEFAULT 0,
		notes TEXT DEFAULT '',
		data JSONB NOT NULL,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS listing_images (
		listing_id BIGINT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		PRIMARY KEY (listing_id, position)
	);

	CREATE TABLE IF NOT EXISTS acquisition_runs (
		id UUID PRIMARY KEY,
		listing_id BIGINT,
		url TEXT,
		status TEXT,
		error TEXT DEFAULT '',
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_listings_location ON listings(LOWER(location));
	CREATE INDEX IF NOT EXISTS idx_runs_status ON acquisition_runs(status, started_at);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) Upsert(ctx context.Context, listing *models.Listing) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("%w: marshal listing %d: %v", models.ErrStoreIO, listing.ID, err)
	}

	now := time.Now().UTC()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin upsert: %v", models.ErrStoreIO, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO listings (id, url, duration, daily_cost, misc_cost, cost, location, coordinates,
			super_host, capacity, average_rating, notes, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			url = EXCLUDED.url,
			duration = EXCLUDED.duration,
			daily_cost = EXCLUDED.daily_cost,
			misc_cost = EXCLUDED.misc_cost,
			cost = EXCLUDED.cost,
			location = EXCLUDED.location,
			coordinates = EXCLUDED.coordinates,
			super_host = EXCLUDED.super_host,
			capacity = EXCLUDED.capacity,
			average_rating = EXCLUDED.average_rating,
			notes = EXCLUDED.notes,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		listing.ID, listing.URL, listing.Duration, listing.DailyCost, listing.MiscCost, listing.Cost,
		listing.Location, listing.Coordinates, listing.SuperHost, listing.Capacity, listing.AverageRating,
		listing.Notes, data, listing.CreatedAt, listing.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: upsert listing %d: %v", models.ErrStoreIO, listing.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM listing_images WHERE listing_id = $1`, listing.ID); err != nil {
		return fmt.Errorf("%w: clear images for listing %d: %v", models.ErrStoreIO, listing.ID, err)
	}
	for i, url := range listing.Images {
		if _, err := tx.Exec(ctx, `
			INSERT INTO listing_images (listing_id, position, url) VALUES ($1, $2, $3)`,
			listing.ID, i, url); err != nil {
			return fmt.Errorf("%w: insert image for listing %d: %v", models.ErrStoreIO, listing.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit upsert for listing %d: %v", models.ErrStoreIO, listing.ID, err)
	}
	return nil
}

const listingColumns = `id, url, duration, daily_cost, misc_cost, cost, location, notes, data, created_at, updated_at`

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)

	listing, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: listing %d", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get listing %d: %v", models.ErrStoreIO, id, err)
	}

	if err := s.loadImages(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *PostgresStore) GetByLocation(ctx context.Context, location string) ([]models.Listing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+listingColumns+` FROM listings
		WHERE location ILIKE '%' || $1 || '%' ORDER BY id`, location)
	if err != nil {
		return nil, fmt.Errorf("%w: search location %q: %v", models.ErrStoreIO, location, err)
	}
	return s.collect(ctx, rows)
}

func (s *PostgresStore) All(ctx context.Context) ([]models.Listing, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list listings: %v", models.ErrStoreIO, err)
	}
	return s.collect(ctx, rows)
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count listings: %v", models.ErrStoreIO, err)
	}
	return n, nil
}

func (s *PostgresStore) UpdateNotes(ctx context.Context, id int64, notes string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE listings
		SET notes = $1, data = jsonb_set(data, '{notes}', to_jsonb($1::text)), updated_at = $2
		WHERE id = $3`, notes, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: update notes for listing %d: %v", models.ErrStoreIO, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: listing %d", models.ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete listing %d: %v", models.ErrStoreIO, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: listing %d", models.ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.AcquisitionRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO acquisition_runs (id, listing_id, url, status, started_at)
		VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.ListingID, run.URL, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("%w: create run %s: %v", models.ErrStoreIO, run.ID, err)
	}
	return nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, id uuid.UUID, status, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE acquisition_runs SET status = $1, error = $2, finished_at = $3 WHERE id = $4`,
		status, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: finish run %s: %v", models.ErrStoreIO, id, err)
	}
	return nil
}

func (s *PostgresStore) collect(ctx context.Context, rows pgx.Rows) ([]models.Listing, error) {
	defer rows.Close()

	listings := []models.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan listing: %v", models.ErrStoreIO, err)
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate listings: %v", models.ErrStoreIO, err)
	}

	for i := range listings {
		if err := s.loadImages(ctx, &listings[i]); err != nil {
			return nil, err
		}
	}
	return listings, nil
}

func (s *PostgresStore) loadImages(ctx context.Context, listing *models.Listing) error {
	rows, err := s.pool.Query(ctx, `
		SELECT url FROM listing_images WHERE listing_id = $1 ORDER BY position`, listing.ID)
	if err != nil {
		return fmt.Errorf("%w: load images for listing %d: %v", models.ErrStoreIO, listing.ID, err)
	}
	defer rows.Close()

	images := []string{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return fmt.Errorf("%w: scan image for listing %d: %v", models.ErrStoreIO, listing.ID, err)
		}
		images = append(images, url)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterate images for listing %d: %v", models.ErrStoreIO, listing.ID, err)
	}
	listing.Images = images
	return nil
}
