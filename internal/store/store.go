package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/user/player_radar_go/internal/analysis"
	"github.com/user/player_radar_go/internal/dataset"
)

// Store keeps imported dataset snapshots in SQLite.
type Store struct {
	db *sqlx.DB
}

// DatasetInfo describes an imported dataset.
type DatasetInfo struct {
	ID         string `db:"id"          json:"id"`
	Players    int    `db:"players"     json:"players"`
	Attributes int    `db:"attributes"  json:"attributes"`
	ImportedAt int64  `db:"imported_at" json:"imported_at"` // unix seconds
}

// Imported returns the import time.
func (d DatasetInfo) Imported() time.Time {
	return time.Unix(d.ImportedAt, 0)
}

type entityRow struct {
	DatasetID string `db:"dataset_id"`
	Idx       int    `db:"idx"`
	Name      string `db:"name"`
	Source    string `db:"source"`
}

type statRow struct {
	DatasetID string  `db:"dataset_id"`
	EntityIdx int     `db:"entity_idx"`
	Attribute string  `db:"attribute"`
	Value     float64 `db:"value"`
}

type infoRow struct {
	DatasetID string `db:"dataset_id"`
	EntityIdx int    `db:"entity_idx"`
	Field     string `db:"field"`
	Value     string `db:"value"`
}

type attributeRow struct {
	DatasetID string `db:"dataset_id"`
	Position  int    `db:"position"`
	Name      string `db:"name"`
}

// New opens the database and prepares the schema. The sqlite driver must be
// registered by the caller.
func New(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS datasets (
			id TEXT PRIMARY KEY,
			players INTEGER NOT NULL DEFAULT 0,
			attributes INTEGER NOT NULL DEFAULT 0,
			imported_at INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS dataset_attributes (
			dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (dataset_id, position)
		);
		CREATE TABLE IF NOT EXISTS entities (
			dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			name TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (dataset_id, idx)
		);
		CREATE TABLE IF NOT EXISTS entity_stats (
			dataset_id TEXT NOT NULL,
			entity_idx INTEGER NOT NULL,
			attribute TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (dataset_id, entity_idx, attribute)
		);
		CREATE TABLE IF NOT EXISTS entity_info (
			dataset_id TEXT NOT NULL,
			entity_idx INTEGER NOT NULL,
			field TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (dataset_id, entity_idx, field)
		);
	`

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Import stores pop under its key, replacing any previous snapshot.
func (s *Store) Import(ctx context.Context, pop *analysis.Population) error {
	if pop == nil || pop.Key == "" {
		return errors.New("population without key")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"entity_info", "entity_stats", "entities", "dataset_attributes"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE dataset_id = ?`, pop.Key); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, pop.Key); err != nil {
		return fmt.Errorf("clear dataset: %w", err)
	}

	info := DatasetInfo{ID: pop.Key, Players: len(pop.Entities), Attributes: len(pop.Attributes), ImportedAt: time.Now().Unix()}
	const insertDataset = `INSERT INTO datasets (id, players, attributes, imported_at)
		VALUES (:id, :players, :attributes, :imported_at)`
	if _, err := tx.NamedExecContext(ctx, insertDataset, info); err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}

	const insertAttr = `INSERT INTO dataset_attributes (dataset_id, position, name) VALUES (:dataset_id, :position, :name)`
	for i, a := range pop.Attributes {
		if _, err := tx.NamedExecContext(ctx, insertAttr, attributeRow{DatasetID: pop.Key, Position: i, Name: a}); err != nil {
			return fmt.Errorf("insert attribute: %w", err)
		}
	}

	const (
		insertEntity = `INSERT INTO entities (dataset_id, idx, name, source) VALUES (:dataset_id, :idx, :name, :source)`
		insertStat   = `INSERT INTO entity_stats (dataset_id, entity_idx, attribute, value) VALUES (:dataset_id, :entity_idx, :attribute, :value)`
		insertInfo   = `INSERT INTO entity_info (dataset_id, entity_idx, field, value) VALUES (:dataset_id, :entity_idx, :field, :value)`
	)
	for i, e := range pop.Entities {
		if _, err := tx.NamedExecContext(ctx, insertEntity, entityRow{DatasetID: pop.Key, Idx: i, Name: e.Name, Source: e.Source}); err != nil {
			return fmt.Errorf("insert entity %s: %w", e.Name, err)
		}
		for attr, v := range e.Stats {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue // absent values are not stored
			}
			if _, err := tx.NamedExecContext(ctx, insertStat, statRow{DatasetID: pop.Key, EntityIdx: i, Attribute: attr, Value: v}); err != nil {
				return fmt.Errorf("insert stat %s of %s: %w", attr, e.Name, err)
			}
		}
		for k, v := range e.Info {
			if _, err := tx.NamedExecContext(ctx, insertInfo, infoRow{DatasetID: pop.Key, EntityIdx: i, Field: k, Value: v}); err != nil {
				return fmt.Errorf("insert info %s of %s: %w", k, e.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Population loads an imported dataset. Unknown IDs return *dataset.DatasetNotFoundError,
// so a Store can sit in a dataset.Sources chain.
func (s *Store) Population(ctx context.Context, id string) (*analysis.Population, error) {
	var info DatasetInfo
	if err := s.db.GetContext(ctx, &info, `SELECT * FROM datasets WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &dataset.DatasetNotFoundError{ID: id}
		}
		return nil, fmt.Errorf("get dataset: %w", err)
	}

	pop := analysis.NewPopulation(info.ID)
	if err := s.db.SelectContext(ctx, &pop.Attributes,
		`SELECT name FROM dataset_attributes WHERE dataset_id = ? ORDER BY position`, id); err != nil {
		return nil, fmt.Errorf("select attributes: %w", err)
	}

	var entities []entityRow
	if err := s.db.SelectContext(ctx, &entities, `SELECT * FROM entities WHERE dataset_id = ? ORDER BY idx`, id); err != nil {
		return nil, fmt.Errorf("select entities: %w", err)
	}
	byIdx := make(map[int]int, len(entities))
	for i, row := range entities {
		byIdx[row.Idx] = i
		pop.Entities = append(pop.Entities, analysis.Entity{
			Name:   row.Name,
			Source: row.Source,
			Stats:  make(map[string]float64),
			Info:   make(map[string]string),
		})
	}

	var stats []statRow
	if err := s.db.SelectContext(ctx, &stats, `SELECT * FROM entity_stats WHERE dataset_id = ?`, id); err != nil {
		return nil, fmt.Errorf("select stats: %w", err)
	}
	for _, st := range stats {
		if i, ok := byIdx[st.EntityIdx]; ok {
			pop.Entities[i].Stats[st.Attribute] = st.Value
		}
	}

	var infos []infoRow
	if err := s.db.SelectContext(ctx, &infos, `SELECT * FROM entity_info WHERE dataset_id = ?`, id); err != nil {
		return nil, fmt.Errorf("select info: %w", err)
	}
	for _, in := range infos {
		if i, ok := byIdx[in.EntityIdx]; ok {
			pop.Entities[i].Info[in.Field] = in.Value
		}
	}

	return pop, nil
}

// List returns the imported datasets ordered by ID.
func (s *Store) List(ctx context.Context) ([]DatasetInfo, error) {
	var out []DatasetInfo
	if err := s.db.SelectContext(ctx, &out, `SELECT * FROM datasets ORDER BY id`); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return out, nil
}
