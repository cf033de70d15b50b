package dataset

import (
	"context"
	"errors"
	"log"

	"github.com/user/player_radar_go/internal/analysis"
	"github.com/user/player_radar_go/internal/parser"
)

// Source provides populations by dataset ID.
type Source interface {
	Population(ctx context.Context, id string) (*analysis.Population, error)
}

// FileSource reads datasets listed in a catalog from disk.
type FileSource struct {
	Catalog *Catalog
	Options parser.Options
}

// Population parses the file behind id. The population key is the canonical dataset ID.
func (s *FileSource) Population(ctx context.Context, id string) (*analysis.Population, error) {
	entry, err := s.Catalog.Lookup(id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parsed, err := parser.ParseDataset(entry.Path, entry.ID(), s.Options)
	if err != nil {
		return nil, &LoadError{ID: entry.ID(), Path: entry.Path, Err: err}
	}
	for _, msg := range parsed.ParseErrors {
		log.Printf("[DEBUG] %s: %s", entry.ID(), msg)
	}
	log.Printf("[INFO] loaded %s: %d players, %d numeric columns", entry.ID(), parsed.NumRows, len(parsed.NumericColumns))
	return parsed.Population, nil
}

// Sources tries each source in order. A source that does not know the dataset
// is skipped; any other error stops the lookup.
type Sources []Source

// Population returns the first population found.
func (ss Sources) Population(ctx context.Context, id string) (*analysis.Population, error) {
	for _, s := range ss {
		pop, err := s.Population(ctx, id)
		if err == nil {
			return pop, nil
		}
		var nf *DatasetNotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}
	return nil, &DatasetNotFoundError{ID: id}
}
