package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ethicalmeat/backend/internal/domain"
)

// SQLiteStore persists pipeline runs and the resulting barcode to rating
// mappings. It implements domain.MappingStore.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the mapping database with WAL mode enabled
// and initializes the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist.
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	product_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS mappings (
	run_id TEXT NOT NULL,
	barcode TEXT NOT NULL,
	name TEXT,
	brands TEXT,
	classified_animal TEXT NOT NULL,
	classified_label TEXT NOT NULL,
	classification_confidence REAL NOT NULL,
	classification_reasoning TEXT,
	emh_mapping_status TEXT NOT NULL,
	emh_tier TEXT,
	emh_steps_to_go INTEGER,
	emh_label TEXT,
	emh_animal TEXT,
	PRIMARY KEY(run_id, barcode),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_mappings_barcode ON mappings(barcode);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// SaveRun stores the rated products of one pipeline run in a single
// transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, runID string, products []domain.RatedProduct) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, created_at, product_count) VALUES (?, ?, ?)",
		runID, time.Now().UTC().Format(time.RFC3339Nano), len(products))
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO mappings (
	run_id, barcode, name, brands,
	classified_animal, classified_label, classification_confidence, classification_reasoning,
	emh_mapping_status, emh_tier, emh_steps_to_go, emh_label, emh_animal
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		var tier, label, animal sql.NullString
		var steps sql.NullInt64

		if p.EMHTier != nil {
			tier = sql.NullString{String: string(*p.EMHTier), Valid: true}
		}
		if p.EMHStepsToGo != nil {
			steps = sql.NullInt64{Int64: int64(*p.EMHStepsToGo), Valid: true}
		}
		if p.EMHLabel != "" {
			label = sql.NullString{String: string(p.EMHLabel), Valid: true}
		}
		if p.EMHAnimal != "" {
			animal = sql.NullString{String: string(p.EMHAnimal), Valid: true}
		}

		_, err := stmt.ExecContext(ctx,
			runID, p.Barcode, p.Name, p.Brands,
			string(p.ClassifiedAnimal), string(p.ClassifiedLabel),
			p.ClassificationConfidence, p.ClassificationReasoning,
			string(p.EMHMappingStatus), tier, steps, label, animal)
		if err != nil {
			return fmt.Errorf("inserting mapping for %s: %w", p.Barcode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}

	log.Printf("[STORE] Saved run %s with %d products", runID, len(products))
	return nil
}

// LookupBarcode returns the most recently stored mapping for a barcode.
func (s *SQLiteStore) LookupBarcode(ctx context.Context, barcode string) (*domain.RatedProduct, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT m.barcode, m.name, m.brands,
	m.classified_animal, m.classified_label, m.classification_confidence, m.classification_reasoning,
	m.emh_mapping_status, m.emh_tier, m.emh_steps_to_go, m.emh_label, m.emh_animal
FROM mappings m
JOIN runs r ON r.id = m.run_id
WHERE m.barcode = ?
ORDER BY r.rowid DESC
LIMIT 1`, barcode)

	var p domain.RatedProduct
	var animal, label string
	var tier, emhLabel, emhAnimal sql.NullString
	var steps sql.NullInt64
	var status string

	err := row.Scan(&p.Barcode, &p.Name, &p.Brands,
		&animal, &label, &p.ClassificationConfidence, &p.ClassificationReasoning,
		&status, &tier, &steps, &emhLabel, &emhAnimal)
	if err == sql.ErrNoRows {
		return nil, domain.ErrRatingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", barcode, err)
	}

	p.ClassifiedAnimal = domain.AnimalKind(animal)
	p.ClassifiedLabel = domain.Label(label)
	p.EMHMappingStatus = domain.MappingStatus(status)
	if tier.Valid {
		t := domain.Tier(tier.String)
		p.EMHTier = &t
	}
	if steps.Valid {
		n := int(steps.Int64)
		p.EMHStepsToGo = &n
	}
	if emhLabel.Valid {
		p.EMHLabel = domain.Label(emhLabel.String)
	}
	if emhAnimal.Valid {
		p.EMHAnimal = domain.AnimalKind(emhAnimal.String)
	}

	return &p, nil
}

// Runs returns the stored run ids, newest first.
func (s *SQLiteStore) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM runs ORDER BY rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
