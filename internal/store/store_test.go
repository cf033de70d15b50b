package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/glebarez/go-sqlite"

	"github.com/user/player_radar_go/internal/analysis"
	"github.com/user/player_radar_go/internal/dataset"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "radar.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func samplePopulation() *analysis.Population {
	return &analysis.Population{
		Key:        "EPL/24-25",
		Attributes: []string{"xG", "Gls", "Ast"},
		Entities: []analysis.Entity{
			{Name: "Saka", Source: "EPL/24-25", Stats: map[string]float64{"xG": 14.1, "Gls": 16, "Ast": 9}, Info: map[string]string{"Squad": "Arsenal"}},
			{Name: "Rodri", Source: "EPL/24-25", Stats: map[string]float64{"Gls": 8}, Info: map[string]string{}},
		},
	}
}

func TestStoreImportAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Import(ctx, samplePopulation()); err != nil {
		t.Fatal(err)
	}

	pop, err := s.Population(ctx, "EPL/24-25")
	if err != nil {
		t.Fatal(err)
	}
	if len(pop.Attributes) != 3 || pop.Attributes[0] != "xG" || pop.Attributes[2] != "Ast" {
		t.Errorf("attribute order lost: %v", pop.Attributes)
	}
	if len(pop.Entities) != 2 || pop.Entities[0].Name != "Saka" || pop.Entities[1].Name != "Rodri" {
		t.Fatalf("entities = %+v", pop.Entities)
	}
	if pop.Entities[0].Stats["xG"] != 14.1 || pop.Entities[0].Info["Squad"] != "Arsenal" {
		t.Errorf("Saka = %+v", pop.Entities[0])
	}
	if _, ok := pop.Entities[1].Value("xG"); ok {
		t.Error("absent value must stay absent")
	}
}

func TestStoreImportReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Import(ctx, samplePopulation()); err != nil {
		t.Fatal(err)
	}
	smaller := samplePopulation()
	smaller.Entities = smaller.Entities[:1]
	if err := s.Import(ctx, smaller); err != nil {
		t.Fatal(err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "EPL/24-25" || list[0].Players != 1 || list[0].Attributes != 3 {
		t.Errorf("List = %+v", list)
	}
	pop, _ := s.Population(ctx, "EPL/24-25")
	if len(pop.Entities) != 1 {
		t.Errorf("expected the snapshot to be replaced, got %d entities", len(pop.Entities))
	}
}

func TestStoreNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Population(context.Background(), "Ligue1/24-25")
	var nf *dataset.DatasetNotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected DatasetNotFoundError, got %v", err)
	}

	if err := s.Import(context.Background(), analysis.NewPopulation("")); err == nil {
		t.Error("expected error for population without key")
	}
}
