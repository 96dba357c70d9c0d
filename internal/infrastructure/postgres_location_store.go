package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"campaignexport/internal/domain"
	"campaignexport/internal/infrastructure/migrations"
	"campaignexport/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectLocations = `
	SELECT
		l.id, l.name, l.address, l.city, l.state, l.postal_code, l.lat, l.lng, l.landing_page_url,
		t.location_id, t.primary_lat, t.primary_lng, t.radius_miles, t.coordinate_list,
		t.landing_page_url, t.notes, t.is_active
	FROM locations l
	LEFT JOIN targeting_configs t ON t.location_id = l.id`

// PostgresLocationStore implements domain.LocationStore on pgxpool.
type PostgresLocationStore struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

func NewPostgresLocationStore(pool *pgxpool.Pool, logger *logger.Logger) *PostgresLocationStore {
	return &PostgresLocationStore{pool: pool, logger: logger}
}

// NewPostgresPool connects and pings with a 5 second timeout. The pool is closed again when the ping fails.
func NewPostgresPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolConf, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConf)
	if err != nil {
		return nil, err
	}

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}

// Migrate applies the embedded directory schema up to migrations.Version.
func Migrate(url string) error {
	driver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return err
	}
	defer driver.Close()

	mg, err := migrate.NewWithSourceInstance("iofs", driver, url)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer mg.Close()

	_, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	if dirty {
		return errors.New("database is in dirty state")
	}

	if err = mg.Migrate(migrations.Version); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *PostgresLocationStore) ListLocations(ctx context.Context) ([]domain.Location, error) {
	rows, err := s.pool.Query(ctx, selectLocations+` ORDER BY l.name, l.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}

	locations, err := pgx.CollectRows(rows, scanLocation)
	if err != nil {
		return nil, fmt.Errorf("failed to scan locations: %w", err)
	}
	return locations, nil
}

func (s *PostgresLocationStore) GetTargetingConfig(ctx context.Context, locationID string) (*domain.TargetingConfig, error) {
	rows, err := s.pool.Query(ctx, selectLocations+` WHERE l.id = $1`, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query location: %w", err)
	}

	loc, err := pgx.CollectExactlyOneRow(rows, scanLocation)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrLocationNotFound, locationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan location: %w", err)
	}
	return loc.Targeting, nil
}

func (s *PostgresLocationStore) SaveLocation(ctx context.Context, record domain.LocationRecord) (domain.Location, error) {
	loc, err := record.Normalize()
	if err != nil {
		return domain.Location{}, err
	}

	var lat, lng *float64
	if loc.HasPoint {
		lat, lng = &loc.Lat, &loc.Lng
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO locations (id, name, address, city, state, postal_code, lat, lng, landing_page_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				address = EXCLUDED.address,
				city = EXCLUDED.city,
				state = EXCLUDED.state,
				postal_code = EXCLUDED.postal_code,
				lat = EXCLUDED.lat,
				lng = EXCLUDED.lng,
				landing_page_url = EXCLUDED.landing_page_url,
				updated_at = now()`,
			loc.ID, loc.Name, loc.Address, loc.City, loc.State, loc.PostalCode, lat, lng, loc.LandingPageURL)
		if err != nil {
			return fmt.Errorf("failed to upsert location: %w", err)
		}

		if loc.Targeting != nil {
			return upsertTargeting(ctx, tx, *loc.Targeting)
		}
		return nil
	})
	if err != nil {
		return domain.Location{}, err
	}

	s.logger.WithContext(ctx).WithField("location_id", loc.ID).Debug("Stored location in postgres")
	return loc, nil
}

func (s *PostgresLocationStore) SaveTargetingConfig(ctx context.Context, config domain.TargetingConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM locations WHERE id = $1)`, config.LocationID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check location: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", domain.ErrLocationNotFound, config.LocationID)
		}
		return upsertTargeting(ctx, tx, config)
	})
}

func (s *PostgresLocationStore) DeleteLocation(ctx context.Context, locationID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM locations WHERE id = $1`, locationID)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrLocationNotFound, locationID)
	}
	return nil
}

func (s *PostgresLocationStore) Close() error {
	s.pool.Close()
	return nil
}

func upsertTargeting(ctx context.Context, tx pgx.Tx, config domain.TargetingConfig) error {
	coords := config.CoordinateList
	if coords == nil {
		coords = []domain.Coordinate{}
	}
	coordJSON, err := json.Marshal(coords)
	if err != nil {
		return fmt.Errorf("failed to marshal coordinate list: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO targeting_configs
			(location_id, primary_lat, primary_lng, radius_miles, coordinate_list, landing_page_url, notes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (location_id) DO UPDATE SET
			primary_lat = EXCLUDED.primary_lat,
			primary_lng = EXCLUDED.primary_lng,
			radius_miles = EXCLUDED.radius_miles,
			coordinate_list = EXCLUDED.coordinate_list,
			landing_page_url = EXCLUDED.landing_page_url,
			notes = EXCLUDED.notes,
			is_active = EXCLUDED.is_active,
			updated_at = now()`,
		config.LocationID, config.PrimaryLat, config.PrimaryLng, config.RadiusMiles, coordJSON,
		config.LandingPageURL, config.Notes, config.IsActive)
	if err != nil {
		return fmt.Errorf("failed to upsert targeting config: %w", err)
	}
	return nil
}

func scanLocation(row pgx.CollectableRow) (domain.Location, error) {
	var (
		loc      domain.Location
		lat, lng *float64
		tcID     *string
		tc       domain.TargetingConfig
		coords   []byte
		tcURL    *string
		notes    *string
		active   *bool
	)

	err := row.Scan(
		&loc.ID, &loc.Name, &loc.Address, &loc.City, &loc.State, &loc.PostalCode, &lat, &lng, &loc.LandingPageURL,
		&tcID, &tc.PrimaryLat, &tc.PrimaryLng, &tc.RadiusMiles, &coords, &tcURL, &notes, &active,
	)
	if err != nil {
		return domain.Location{}, err
	}

	if lat != nil && lng != nil {
		loc.Lat, loc.Lng, loc.HasPoint = *lat, *lng, true
	}

	if tcID != nil {
		tc.LocationID = *tcID
		tc.IsActive = active == nil || *active
		if tcURL != nil {
			tc.LandingPageURL = *tcURL
		}
		if notes != nil {
			tc.Notes = *notes
		}
		if len(coords) > 0 {
			if err := json.Unmarshal(coords, &tc.CoordinateList); err != nil {
				return domain.Location{}, fmt.Errorf("failed to decode coordinate list for %s: %w", loc.ID, err)
			}
		}
		loc.Targeting = &tc
	}

	return loc, nil
}
