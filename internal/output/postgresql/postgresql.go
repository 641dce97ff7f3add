// Package postgresql stores mined blocks and receipts in PostgreSQL.
package postgresql

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/manifest-network/mockchain/internal/models"
	"github.com/manifest-network/mockchain/internal/output"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	upsertBlockQuery    = `INSERT INTO blocks (id, data) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`
	deleteReceiptsQuery = `DELETE FROM receipts WHERE block_id = $1`
	insertReceiptQuery  = `INSERT INTO receipts (block_id, idx, result) VALUES ($1, $2, $3)`
	latestBlockQuery    = `SELECT id, data FROM blocks ORDER BY id DESC LIMIT 1`
	earliestBlockQuery  = `SELECT id, data FROM blocks ORDER BY id ASC LIMIT 1`
	missingBlocksQuery  = `SELECT s.id FROM generate_series((SELECT MIN(id) FROM blocks), (SELECT MAX(id) FROM blocks)) AS s(id) LEFT JOIN blocks b ON b.id = s.id WHERE b.id IS NULL ORDER BY s.id`
)

var _ output.OutputHandler = (*PostgresOutputHandler)(nil)

type PostgresOutputHandler struct {
	db *sql.DB
}

// NewPostgresOutputHandler connects to PostgreSQL and applies the embedded migrations.
func NewPostgresOutputHandler(ctx context.Context, connString string) (*PostgresOutputHandler, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return newWithDB(db), nil
}

func newWithDB(db *sql.DB) *PostgresOutputHandler {
	return &PostgresOutputHandler{db: db}
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Debug("Database migrations applied")
	return nil
}

// WriteBlock upserts the block and replaces its receipts in a single transaction.
func (h *PostgresOutputHandler) WriteBlock(ctx context.Context, block *models.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("failed to marshal block: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	height := int64(block.Height)
	if _, err := tx.ExecContext(ctx, upsertBlockQuery, height, string(data)); err != nil {
		return fmt.Errorf("failed to write block %d: %w", block.Height, err)
	}

	if _, err := tx.ExecContext(ctx, deleteReceiptsQuery, height); err != nil {
		return fmt.Errorf("failed to clear receipts for block %d: %w", block.Height, err)
	}

	for i, receipt := range block.Receipts {
		if _, err := tx.ExecContext(ctx, insertReceiptQuery, height, int64(i), receipt.Result); err != nil {
			return fmt.Errorf("failed to write receipt %d of block %d: %w", i, block.Height, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit block %d: %w", block.Height, err)
	}
	return nil
}

func (h *PostgresOutputHandler) GetLatestBlock(ctx context.Context) (*models.Block, error) {
	return h.queryBlock(ctx, latestBlockQuery)
}

func (h *PostgresOutputHandler) GetEarliestBlock(ctx context.Context) (*models.Block, error) {
	return h.queryBlock(ctx, earliestBlockQuery)
}

func (h *PostgresOutputHandler) GetMissingBlockIds(ctx context.Context) ([]uint64, error) {
	rows, err := h.db.QueryContext(ctx, missingBlocksQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query missing blocks: %w", err)
	}
	defer rows.Close()

	var missing []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan missing block id: %w", err)
		}
		missing = append(missing, uint64(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate missing blocks: %w", err)
	}
	return missing, nil
}

func (h *PostgresOutputHandler) Close() error {
	return h.db.Close()
}

func (h *PostgresOutputHandler) queryBlock(ctx context.Context, query string) (*models.Block, error) {
	var (
		id   int64
		data []byte
	)
	err := h.db.QueryRowContext(ctx, query).Scan(&id, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query block: %w", err)
	}

	var block models.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block %d: %w", id, err)
	}
	block.Height = uint64(id)
	return &block, nil
}
