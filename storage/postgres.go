package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"blocket-watcher/models"
)

// PostgresStore persists listings and recipients in PostgreSQL. URL
// uniqueness is enforced by the schema, which makes the upsert the
// pipeline's only write primitive.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id          SERIAL PRIMARY KEY,
			url         TEXT        UNIQUE NOT NULL,
			title       TEXT        NOT NULL DEFAULT '',
			owner       TEXT        NOT NULL DEFAULT '',
			body        TEXT        NOT NULL DEFAULT '',
			images      TEXT[]      NOT NULL DEFAULT '{}',
			rent        INTEGER     NOT NULL DEFAULT 0,
			rooms       TEXT        NOT NULL DEFAULT '',
			size        TEXT        NOT NULL DEFAULT '',
			location    TEXT        NOT NULL DEFAULT '',
			address     TEXT        NOT NULL DEFAULT '',
			phone       TEXT        NOT NULL DEFAULT '',
			home_type   TEXT        NOT NULL DEFAULT '',
			listed_at   TIMESTAMPTZ,
			cls_girls      BOOLEAN NOT NULL DEFAULT FALSE,
			cls_commuters  BOOLEAN NOT NULL DEFAULT FALSE,
			cls_shared     BOOLEAN NOT NULL DEFAULT FALSE,
			cls_swap       BOOLEAN NOT NULL DEFAULT FALSE,
			cls_no_kitchen BOOLEAN NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			modified_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			removed_at  TIMESTAMPTZ,
			active      BOOLEAN     NOT NULL DEFAULT TRUE,
			disabled    BOOLEAN     NOT NULL DEFAULT FALSE
		);

		CREATE INDEX IF NOT EXISTS idx_listings_rent     ON listings(rent);
		CREATE INDEX IF NOT EXISTS idx_listings_location ON listings(location);
		CREATE INDEX IF NOT EXISTS idx_listings_active   ON listings(active);

		CREATE TABLE IF NOT EXISTS recipients (
			id            SERIAL PRIMARY KEY,
			name          TEXT    NOT NULL DEFAULT '',
			email         TEXT    NOT NULL DEFAULT '',
			tel           TEXT    NOT NULL DEFAULT '',
			notify_sms    BOOLEAN NOT NULL DEFAULT FALSE,
			notify_email  BOOLEAN NOT NULL DEFAULT FALSE,
			max_rent      INTEGER NOT NULL DEFAULT 0,
			location_pattern TEXT NOT NULL DEFAULT '',
			period_min    TIMESTAMPTZ,
			period_max    TIMESTAMPTZ,
			pref_girls      BOOLEAN,
			pref_commuters  BOOLEAN,
			pref_shared     BOOLEAN,
			pref_swap       BOOLEAN,
			pref_no_kitchen BOOLEAN,
			active        BOOLEAN NOT NULL DEFAULT TRUE
		);
	`)
	return err
}

// FindByURL returns the stored listing for url, or nil when none exists.
func (s *PostgresStore) FindByURL(ctx context.Context, url string) (*models.Listing, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, title, owner, body, images, rent, rooms, size,
		       location, address, phone, home_type, listed_at,
		       cls_girls, cls_commuters, cls_shared, cls_swap, cls_no_kitchen,
		       created_at, modified_at, removed_at, active, disabled
		FROM listings
		WHERE url = $1
	`, url)

	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find by url: %w", err)
	}
	return l, nil
}

// Upsert writes the listing keyed on its URL and returns it with the
// storage id filled in.
func (s *PostgresStore) Upsert(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	var listedAt, removedAt sql.NullTime
	if !l.ListedAt.IsZero() {
		listedAt = sql.NullTime{Time: l.ListedAt, Valid: true}
	}
	if l.RemovedAt != nil {
		removedAt = sql.NullTime{Time: *l.RemovedAt, Valid: true}
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO listings (
			url, title, owner, body, images, rent, rooms, size,
			location, address, phone, home_type, listed_at,
			cls_girls, cls_commuters, cls_shared, cls_swap, cls_no_kitchen,
			created_at, modified_at, removed_at, active, disabled
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,
			$14,$15,$16,$17,$18,$19,$20,$21,$22,$23
		)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			owner = EXCLUDED.owner,
			body = EXCLUDED.body,
			images = EXCLUDED.images,
			rent = EXCLUDED.rent,
			rooms = EXCLUDED.rooms,
			size = EXCLUDED.size,
			location = EXCLUDED.location,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			home_type = EXCLUDED.home_type,
			listed_at = EXCLUDED.listed_at,
			cls_girls = EXCLUDED.cls_girls,
			cls_commuters = EXCLUDED.cls_commuters,
			cls_shared = EXCLUDED.cls_shared,
			cls_swap = EXCLUDED.cls_swap,
			cls_no_kitchen = EXCLUDED.cls_no_kitchen,
			modified_at = EXCLUDED.modified_at,
			removed_at = EXCLUDED.removed_at,
			active = EXCLUDED.active,
			disabled = EXCLUDED.disabled
		RETURNING id
	`,
		l.URL, l.Title, l.Owner, l.Body, pq.Array(l.Images), l.Rent, l.Rooms, l.Size,
		l.Location, l.Address, l.Phone, l.HomeType, listedAt,
		l.Classification.Girls, l.Classification.Commuters, l.Classification.Shared,
		l.Classification.Swap, l.Classification.NoKitchen,
		l.CreatedAt, l.ModifiedAt, removedAt, l.Active, l.Disabled,
	).Scan(&l.ID)
	if err != nil {
		return nil, fmt.Errorf("postgres: upsert %s: %w", l.URL, err)
	}
	return l, nil
}

// ListActive returns all recipients who have not been deactivated.
func (s *PostgresStore) ListActive(ctx context.Context) ([]*models.Recipient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, tel, notify_sms, notify_email,
		       max_rent, location_pattern, period_min, period_max,
		       pref_girls, pref_commuters, pref_shared, pref_swap, pref_no_kitchen
		FROM recipients
		WHERE active
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recipients: %w", err)
	}
	defer rows.Close()

	var recipients []*models.Recipient
	for rows.Next() {
		r := &models.Recipient{}
		var periodMin, periodMax sql.NullTime
		var girls, commuters, shared, swap, noKitchen sql.NullBool

		if err := rows.Scan(
			&r.ID, &r.Name, &r.Email, &r.Tel, &r.NotifySMS, &r.NotifyEmail,
			&r.Profile.MaxRent, &r.Profile.LocationPattern, &periodMin, &periodMax,
			&girls, &commuters, &shared, &swap, &noKitchen,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan recipient: %w", err)
		}

		if periodMin.Valid {
			r.Profile.PeriodMin = &periodMin.Time
		}
		if periodMax.Valid {
			r.Profile.PeriodMax = &periodMax.Time
		}
		r.Profile.Girls = nullableBool(girls)
		r.Profile.Commuters = nullableBool(commuters)
		r.Profile.Shared = nullableBool(shared)
		r.Profile.Swap = nullableBool(swap)
		r.Profile.NoKitchen = nullableBool(noKitchen)

		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func scanListing(row *sql.Row) (*models.Listing, error) {
	l := &models.Listing{}
	var images pq.StringArray
	var listedAt, removedAt sql.NullTime

	err := row.Scan(
		&l.ID, &l.URL, &l.Title, &l.Owner, &l.Body, &images, &l.Rent, &l.Rooms, &l.Size,
		&l.Location, &l.Address, &l.Phone, &l.HomeType, &listedAt,
		&l.Classification.Girls, &l.Classification.Commuters, &l.Classification.Shared,
		&l.Classification.Swap, &l.Classification.NoKitchen,
		&l.CreatedAt, &l.ModifiedAt, &removedAt, &l.Active, &l.Disabled,
	)
	if err != nil {
		return nil, err
	}

	l.Images = images
	if listedAt.Valid {
		l.ListedAt = listedAt.Time
	}
	if removedAt.Valid {
		t := removedAt.Time
		l.RemovedAt = &t
	}
	return l, nil
}

func nullableBool(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	v := b.Bool
	return &v
}
