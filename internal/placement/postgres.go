package placement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // postgres driver

	"github.com/thenexusengine/tne_mediation/internal/config"
	"github.com/thenexusengine/tne_mediation/internal/mediation"
)

const selectPlacements = `
		SELECT placement_id, network, format, config, enabled, updated_at
		FROM mediation_placements
		WHERE enabled = true
		ORDER BY placement_id
	`

const selectPlacement = `
		SELECT placement_id, network, format, config, enabled, updated_at
		FROM mediation_placements
		WHERE placement_id = $1
	`

const upsertPlacement = `
		INSERT INTO mediation_placements (placement_id, network, format, config, enabled, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (placement_id) DO UPDATE
		SET network = EXCLUDED.network, format = EXCLUDED.format, config = EXCLUDED.config,
		    enabled = EXCLUDED.enabled, updated_at = NOW()
	`

// PostgresSource reads placements from the mediation_placements table
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource creates a source over db
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// Name implements Source
func (s *PostgresSource) Name() string { return "postgres" }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlacement(row rowScanner) (*Placement, error) {
	var p Placement
	var format string
	if err := row.Scan(&p.ID, &p.Network, &format, &p.Config, &p.Enabled, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Format = mediation.Format(format)
	return &p, nil
}

// Load implements Source
func (s *PostgresSource) Load(ctx context.Context) (map[string]*Placement, error) {
	rows, err := s.db.QueryContext(ctx, selectPlacements)
	if err != nil {
		return nil, fmt.Errorf("failed to query placements: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*Placement)
	for rows.Next() {
		p, err := scanPlacement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan placement row: %w", err)
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

// Get retrieves one placement, enabled or not
func (s *PostgresSource) Get(ctx context.Context, id string) (*Placement, error) {
	p, err := scanPlacement(s.db.QueryRowContext(ctx, selectPlacement, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query placement: %w", err)
	}
	return p, nil
}

// Save inserts or updates a placement
func (s *PostgresSource) Save(ctx context.Context, p *Placement) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertPlacement, p.ID, p.Network, string(p.Format), p.Config, p.Enabled); err != nil {
		return fmt.Errorf("failed to save placement: %w", err)
	}
	return nil
}

// NewDBConnection opens and tests a PostgreSQL connection pool
func NewDBConnection(host, port, user, password, dbname, sslmode string) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(config.DBConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
