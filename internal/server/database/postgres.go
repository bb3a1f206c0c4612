// internal/server/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chatroom/internal/server/models"

	"github.com/lib/pq"
)

// undefined_table
const codeUndefinedTable = "42P01"

var ErrNoInsultsTable = errors.New("insults table does not exist")

type DB struct {
	*sql.DB
}

func ConnString(host, port, user, password, dbname string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

func NewDB(host, port, user, password, dbname string) (*DB, error) {
	db, err := sql.Open("postgres", ConnString(host, port, user, password, dbname))
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// EnsureSchema creates the insults table when it is missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS insults (
			id         BIGSERIAL PRIMARY KEY,
			phrase     TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// GetInsults returns every stored insult in insertion order.
func (db *DB) GetInsults(ctx context.Context) ([]models.Insult, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, phrase, created_at
		FROM insults
		WHERE btrim(phrase) <> ''
		ORDER BY id
	`)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == codeUndefinedTable {
			return nil, ErrNoInsultsTable
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	var insults []models.Insult
	for rows.Next() {
		var insult models.Insult
		if err := rows.Scan(&insult.ID, &insult.Phrase, &insult.CreatedAt); err != nil {
			return nil, err
		}
		insults = append(insults, insult)
	}
	return insults, rows.Err()
}

// LoadInsults returns the stored phrases only.
func (db *DB) LoadInsults(ctx context.Context) ([]string, error) {
	insults, err := db.GetInsults(ctx)
	if err != nil {
		return nil, err
	}
	phrases := make([]string, 0, len(insults))
	for _, insult := range insults {
		phrases = append(phrases, insult.Phrase)
	}
	return phrases, nil
}

// SeedInsults stores phrases, skipping the ones already present.
func (db *DB) SeedInsults(ctx context.Context, phrases []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, phrase := range phrases {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO insults (phrase)
			VALUES ($1)
			ON CONFLICT (phrase) DO NOTHING
		`, phrase); err != nil {
			return fmt.Errorf("error seeding insult: %w", err)
		}
	}
	return tx.Commit()
}

func (db *DB) Close() error {
	return db.DB.Close()
}
