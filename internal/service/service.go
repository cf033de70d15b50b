package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/user/player_radar_go/internal/analysis"
)

// ErrPlayerNotFound is returned when a requested player is not in its dataset.
var ErrPlayerNotFound = errors.New("player not found")

// MinutesAttribute is the column used by the minimum-minutes filter.
const MinutesAttribute = "Min"

// PopulationLoader loads populations by dataset ID, in ids order.
type PopulationLoader interface {
	GetPopulations(ctx context.Context, ids ...string) ([]*analysis.Population, error)
}

// Service runs comparisons over loaded datasets.
type Service struct {
	Loader  PopulationLoader
	Presets analysis.Presets
	Options analysis.Options // defaults for every comparison
}

// PlayerRef selects a player by name within a dataset.
type PlayerRef struct {
	Dataset string `json:"dataset"`
	Name    string `json:"name"`
}

// Selection is the attribute and population setup shared by all requests.
// Attributes wins over Group; with neither, every common attribute is used.
type Selection struct {
	Attributes []string
	Group      string
	MinMinutes float64 // keep players with at least this many minutes; 0 disables
	Derived    bool    // add the derived columns from the presets
}

// CompareRequest asks for a two-player radar comparison.
type CompareRequest struct {
	A, B PlayerRef
	Selection
	Options *analysis.Options // overrides Service.Options when set
}

// CompareResult is a comparison plus the group attributes the datasets lack.
type CompareResult struct {
	Comparison   *analysis.Comparison
	GroupDropped []string
}

// OverviewRequest asks for the single-player attribute overview.
type OverviewRequest struct {
	Player PlayerRef
	Selection
	Clamp analysis.ClampPolicy
}

// OverviewResult holds the overview of one player.
type OverviewResult struct {
	Entity       analysis.Entity
	Reference    string
	Items        []analysis.OverviewItem
	GroupDropped []string
	Warnings     []string // missing values and attributes without range
}

// Compare loads both datasets, prepares them and compares the two players
// against the reference population.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (*CompareResult, error) {
	pops, err := s.prepare(ctx, req.Selection, req.A.Dataset, req.B.Dataset)
	if err != nil {
		return nil, err
	}

	a, err := findPlayer(pops[0], req.A.Name)
	if err != nil {
		return nil, err
	}
	b, err := findPlayer(pops[1], req.B.Name)
	if err != nil {
		return nil, err
	}

	attrs, dropped, err := s.resolveAttributes(req.Selection, pops...)
	if err != nil {
		return nil, err
	}

	opts := s.Options
	if req.Options != nil {
		opts = *req.Options
	}
	cmp, err := analysis.CompareEntities(a, b, attrs, pops, opts)
	if err != nil {
		return nil, fmt.Errorf("compare %s and %s: %w", a.Name, b.Name, err)
	}
	log.Printf("[DEBUG] compared %s and %s on %d attributes against %s", a.Label(), b.Label(), len(cmp.Categories), cmp.Reference)
	return &CompareResult{Comparison: cmp, GroupDropped: dropped}, nil
}

// Overview normalizes every selected attribute of one player against its own dataset.
// Missing values are reported as warnings; the overview is still returned.
func (s *Service) Overview(ctx context.Context, req OverviewRequest) (*OverviewResult, error) {
	pops, err := s.prepare(ctx, req.Selection, req.Player.Dataset)
	if err != nil {
		return nil, err
	}
	pop := pops[0]

	e, err := findPlayer(pop, req.Player.Name)
	if err != nil {
		return nil, err
	}
	attrs, dropped, err := s.resolveAttributes(req.Selection, pop)
	if err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		return nil, analysis.ErrNoCategories
	}

	items, err := analysis.SingleEntityOverview(e, attrs, pop, req.Clamp)
	res := &OverviewResult{Entity: e, Reference: pop.Key, Items: items, GroupDropped: dropped}
	if err != nil {
		missing, empty := analysis.MissingAttributes(err), analysis.EmptyRanges(err)
		if len(missing)+len(empty) == 0 {
			return nil, fmt.Errorf("overview of %s: %w", e.Name, err)
		}
		for _, m := range missing {
			res.Warnings = append(res.Warnings, m.Error())
		}
		for _, er := range empty {
			res.Warnings = append(res.Warnings, er.Error())
		}
	}
	return res, nil
}

// Players returns the players of a dataset after the selection's filters.
func (s *Service) Players(ctx context.Context, id string, sel Selection) ([]analysis.Entity, error) {
	pops, err := s.prepare(ctx, sel, id)
	if err != nil {
		return nil, err
	}
	return pops[0].Entities, nil
}

// Attributes returns the numeric attributes of a dataset, derived columns included
// when requested.
func (s *Service) Attributes(ctx context.Context, id string, derived bool) ([]string, error) {
	pops, err := s.prepare(ctx, Selection{Derived: derived}, id)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), pops[0].Attributes...), nil
}

// Groups returns the configured stat groups.
func (s *Service) Groups() analysis.StatGroups {
	return s.Presets.Groups
}

// prepare loads the datasets and applies derived columns and the minutes
// filter. Repeated IDs share one prepared population.
func (s *Service) prepare(ctx context.Context, sel Selection, ids ...string) ([]*analysis.Population, error) {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return nil, errors.New("dataset is required")
		}
	}
	loaded, err := s.Loader.GetPopulations(ctx, ids...)
	if err != nil {
		return nil, err
	}

	prepared := make(map[*analysis.Population]*analysis.Population, len(loaded))
	out := make([]*analysis.Population, len(loaded))
	for i, pop := range loaded {
		if p, ok := prepared[pop]; ok {
			out[i] = p
			continue
		}
		p := pop
		if sel.Derived {
			p = analysis.ApplyDerived(p, s.Presets.Derived)
		}
		if sel.MinMinutes > 0 {
			if !p.HasAttribute(MinutesAttribute) {
				log.Printf("[WARN] dataset %s has no %s column, minimum minutes ignored", pop.Key, MinutesAttribute)
			} else {
				p = analysis.FilterMinimum(p, MinutesAttribute, sel.MinMinutes)
			}
		}
		prepared[pop] = p
		out[i] = p
	}
	return out, nil
}

// resolveAttributes picks the categories of a request.
func (s *Service) resolveAttributes(sel Selection, pops ...*analysis.Population) (attrs, dropped []string, err error) {
	if len(sel.Attributes) > 0 {
		for _, a := range sel.Attributes {
			if a = strings.TrimSpace(a); a != "" {
				attrs = append(attrs, a)
			}
		}
		return attrs, nil, nil
	}

	common := analysis.CommonAttributes(pops...)
	if sel.Group == "" {
		return common, nil, nil
	}
	attrs, dropped, err = s.Presets.Groups.Resolve(sel.Group, common)
	if err != nil {
		return nil, nil, err
	}
	if len(dropped) > 0 {
		log.Printf("[INFO] group %s: attributes not available in the selected datasets: %s", sel.Group, strings.Join(dropped, ", "))
	}
	return attrs, dropped, nil
}

func findPlayer(pop *analysis.Population, name string) (analysis.Entity, error) {
	if strings.TrimSpace(name) == "" {
		return analysis.Entity{}, fmt.Errorf("%w: empty name", ErrPlayerNotFound)
	}
	e, ok := pop.Find(name)
	if !ok {
		return analysis.Entity{}, fmt.Errorf("%w: %q in %s", ErrPlayerNotFound, name, pop.Key)
	}
	if n := len(pop.FindAll(name)); n > 1 {
		log.Printf("[WARN] %d players named %q in %s, using the first", n, name, pop.Key)
	}
	return e, nil
}
