package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"bnbtrack/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", models.ErrStoreIO, dbPath, err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("%w: migrate: %v", models.ErrStoreIO, err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id INTEGER PRIMARY KEY,
		url TEXT NOT NULL,
		duration INTEGER NOT NULL,
		daily_cost REAL NOT NULL,
		misc_cost REAL NOT NULL,
		cost REAL NOT NULL,
		location TEXT,
		coordinates TEXT,
		super_host BOOLEAN DEFAULT FALSE,
		capacity INTEGER DEFAULT 0,
		average_rating REAL DEFAULT 0,
		notes TEXT DEFAULT '',
		data JSON NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS listing_images (
		listing_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		PRIMARY KEY (listing_id, position),
		FOREIGN KEY (listing_id) REFERENCES listings(id)
	);

	CREATE TABLE IF NOT EXISTS acquisition_runs (
		id TEXT PRIMARY KEY,
		listing_id INTEGER,
		url TEXT,
		status TEXT,
		error TEXT,
		started_at DATETIME,
		finished_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_listings_location ON listings(location);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON acquisition_runs(status, started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Upsert(ctx context.Context, listing *models.Listing) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("%w: marshal listing %d: %v", models.ErrStoreIO, listing.ID, err)
	}

	now := time.Now().UTC()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin upsert: %v", models.ErrStoreIO, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO listings (id, url, duration, daily_cost, misc_cost, cost, location, coordinates,
			super_host, capacity, average_rating, notes, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			duration = excluded.duration,
			daily_cost = excluded.daily_cost,
			misc_cost = excluded.misc_cost,
			cost = excluded.cost,
			location = excluded.location,
			coordinates = excluded.coordinates,
			super_host = excluded.super_host,
			capacity = excluded.capacity,
			average_rating = excluded.average_rating,
			notes = excluded.notes,
			data = excluded.data,
			created_at = listings.created_at,
			updated_at = excluded.updated_at`,
		listing.ID, listing.URL, listing.Duration, listing.DailyCost, listing.MiscCost, listing.Cost,
		listing.Location, listing.Coordinates, listing.SuperHost, listing.Capacity, listing.AverageRating,
		listing.Notes, data, listing.CreatedAt, listing.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: upsert listing %d: %v", models.ErrStoreIO, listing.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM listing_images WHERE listing_id = ?`, listing.ID); err != nil {
		return fmt.Errorf("%w: clear images for listing %d: %v", models.ErrStoreIO, listing.ID, err)
	}
	for i, url := range listing.Images {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO listing_images (listing_id, position, url) VALUES (?, ?, ?)`,
			listing.ID, i, url); err != nil {
			return fmt.Errorf("%w: insert image for listing %d: %v", models.ErrStoreIO, listing.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit upsert for listing %d: %v", models.ErrStoreIO, listing.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, duration, daily_cost, misc_cost, cost, location, notes, data, created_at, updated_at
		FROM listings WHERE id = ?`, id)

	listing, err := scanListing(row)
	if err == sql.ErrNoRows {
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

func (s *SQLiteStore) GetByLocation(ctx context.Context, location string) ([]models.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, duration, daily_cost, misc_cost, cost, location, notes, data, created_at, updated_at
		FROM listings WHERE LOWER(location) LIKE '%' || LOWER(?) || '%' ORDER BY id`, location)
	if err != nil {
		return nil, fmt.Errorf("%w: search location %q: %v", models.ErrStoreIO, location, err)
	}
	return s.collect(ctx, rows)
}

func (s *SQLiteStore) All(ctx context.Context) ([]models.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, duration, daily_cost, misc_cost, cost, location, notes, data, created_at, updated_at
		FROM listings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list listings: %v", models.ErrStoreIO, err)
	}
	return s.collect(ctx, rows)
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count listings: %v", models.ErrStoreIO, err)
	}
	return n, nil
}

func (s *SQLiteStore) UpdateNotes(ctx context.Context, id int64, notes string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE listings SET notes = ?, data = json_set(data, '$.notes', ?), updated_at = ?
		WHERE id = ?`, notes, notes, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: update notes for listing %d: %v", models.ErrStoreIO, id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: listing %d", models.ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin delete: %v", models.ErrStoreIO, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM listing_images WHERE listing_id = ?`, id); err != nil {
		return fmt.Errorf("%w: delete images for listing %d: %v", models.ErrStoreIO, id, err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete listing %d: %v", models.ErrStoreIO, id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: listing %d", models.ErrNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit delete for listing %d: %v", models.ErrStoreIO, id, err)
	}
	return nil
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.AcquisitionRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO acquisition_runs (id, listing_id, url, status, error, started_at)
		VALUES (?, ?, ?, ?, '', ?)`,
		run.ID.String(), run.ListingID, run.URL, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("%w: create run %s: %v", models.ErrStoreIO, run.ID, err)
	}
	return nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, id uuid.UUID, status, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE acquisition_runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, errMsg, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("%w: finish run %s: %v", models.ErrStoreIO, id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanListing rebuilds a listing from its JSON document and then lets the
// scalar columns win, so a column-only update such as notes stays visible.
func scanListing(row rowScanner) (*models.Listing, error) {
	var (
		listing  models.Listing
		location sql.NullString
		notes    sql.NullString
		data     []byte
	)
	err := row.Scan(&listing.ID, &listing.URL, &listing.Duration, &listing.DailyCost, &listing.MiscCost,
		&listing.Cost, &location, &notes, &data, &listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		return nil, err
	}

	id, url := listing.ID, listing.URL
	duration, daily, misc, cost := listing.Duration, listing.DailyCost, listing.MiscCost, listing.Cost
	createdAt, updatedAt := listing.CreatedAt, listing.UpdatedAt

	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, err
	}

	listing.ID, listing.URL = id, url
	listing.Duration, listing.DailyCost, listing.MiscCost, listing.Cost = duration, daily, misc, cost
	listing.CreatedAt, listing.UpdatedAt = createdAt, updatedAt
	listing.Location = location.String
	listing.Notes = notes.String
	return &listing, nil
}

func (s *SQLiteStore) collect(ctx context.Context, rows *sql.Rows) ([]models.Listing, error) {
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

func (s *SQLiteStore) loadImages(ctx context.Context, listing *models.Listing) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url FROM listing_images WHERE listing_id = ? ORDER BY position`, listing.ID)
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
