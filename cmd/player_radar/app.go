package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/user/player_radar_go/internal/analysis"
	"github.com/user/player_radar_go/internal/dataset"
	"github.com/user/player_radar_go/internal/parser"
	"github.com/user/player_radar_go/internal/report"
	"github.com/user/player_radar_go/internal/service"
	"github.com/user/player_radar_go/internal/store"
)

// App wires the catalog, the optional database and the comparison service.
type App struct {
	Catalog *dataset.Catalog
	Store   *store.Store // nil without --db
	Files   *dataset.FileSource
	Loader  *dataset.Loader
	Service *service.Service

	status func(string) // set by the GUI to forward progress messages
}

// NewApp builds the application from the global options.
func NewApp(opts CommonOpts) (*App, error) {
	presets := analysis.DefaultPresets()
	if opts.Presets != "" {
		p, err := analysis.LoadPresetsFromFile(opts.Presets)
		if err != nil {
			return nil, err
		}
		presets = p
	}

	cat, err := dataset.LoadCatalog(opts.Catalog, opts.DataDir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || opts.DB == "" {
			return nil, err
		}
		log.Printf("[WARN] catalog %s not found, using imported datasets only", opts.Catalog)
		cat = &dataset.Catalog{}
	}

	a := &App{
		Catalog: cat,
		Files:   &dataset.FileSource{Catalog: cat, Options: parser.Options{NameColumn: opts.NameColumn}},
	}
	sources := dataset.Sources{a.Files}
	if opts.DB != "" {
		st, err := store.New(opts.DB)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		a.Store = st
		sources = append(sources, st)
	}

	a.Loader = dataset.NewLoader(sources, opts.CacheTTL)
	a.Service = &service.Service{Loader: a.Loader, Presets: presets}
	log.Printf("[DEBUG] catalog %s: %d datasets, db=%q, cache ttl %s", opts.Catalog, len(cat.Entries), opts.DB, opts.CacheTTL)
	return a, nil
}

// Close releases the database.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

func (a *App) sendStatus(message string) {
	log.Printf("[INFO] %s", message)
	if a.status != nil {
		a.status(message)
	}
}

// ReportOutputs names the files a report run writes; empty names are skipped.
type ReportOutputs struct {
	PDF string
	PNG string
	SVG string
}

// GenerateReport runs the whole pipeline for one comparison: load, normalize,
// render the charts and write the requested files.
func (a *App) GenerateReport(ctx context.Context, req service.CompareRequest, out ReportOutputs) (*service.CompareResult, error) {
	a.sendStatus(fmt.Sprintf("Request: %s (%s) vs %s (%s)", req.A.Name, req.A.Dataset, req.B.Name, req.B.Dataset))

	res, err := a.Service.Compare(ctx, req)
	if err != nil {
		return nil, err
	}
	cmp := res.Comparison
	a.sendStatus(fmt.Sprintf("Compared on %d attributes against %s.", len(cmp.Categories), cmp.Reference))
	if len(cmp.Dropped) > 0 {
		a.sendStatus("Dropped attributes without range: " + strings.Join(cmp.Dropped, ", "))
	}
	for _, m := range cmp.Missing {
		a.sendStatus(fmt.Sprintf("- %s", m))
	}

	if out.PDF == "" && out.PNG == "" && out.SVG == "" {
		return res, nil
	}

	title := report.ComparisonTitle(cmp)
	images := make(map[string][]byte)
	if out.PDF != "" || out.PNG != "" {
		a.sendStatus("Generating radar chart...")
		img, err := report.CreateRadarPlot(cmp, title, "png")
		if err != nil {
			return nil, fmt.Errorf("radar chart: %w", err)
		}
		images[report.ImageRadar] = img
		if out.PNG != "" {
			if err := os.WriteFile(out.PNG, img, 0o644); err != nil {
				return nil, fmt.Errorf("write %s: %w", out.PNG, err)
			}
			a.sendStatus("Chart written: " + out.PNG)
		}
	}

	if out.SVG != "" {
		f, err := os.Create(out.SVG)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", out.SVG, err)
		}
		if err := report.WriteRadarSVG(f, cmp, 600); err != nil {
			f.Close()
			return nil, fmt.Errorf("svg chart: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("close %s: %w", out.SVG, err)
		}
		a.sendStatus("Chart written: " + out.SVG)
	}

	if out.PDF == "" {
		return res, nil
	}

	a.sendStatus("Generating player overviews...")
	overviews, err := comparisonOverviews(cmp)
	if err != nil {
		return nil, err
	}
	for i, ov := range overviews {
		img, err := report.CreateOverviewPlot(ov.Name, ov.Items, "png")
		if err != nil {
			return nil, fmt.Errorf("overview chart of %s: %w", ov.Name, err)
		}
		images[fmt.Sprintf("%s%d", report.ImageOverviewPrefix, i)] = img
	}

	a.sendStatus(fmt.Sprintf("Generating PDF: %s...", out.PDF))
	err = report.BuildComparisonReport(out.PDF, report.ReportData{
		Title:       title,
		Comparison:  cmp,
		Overviews:   overviews,
		Images:      images,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("pdf report: %w", err)
	}
	a.sendStatus("PDF report successfully generated: " + out.PDF)
	return res, nil
}

// comparisonOverviews builds the per-player overviews on the scale of the
// radar chart, so the report shows one normalized value per player and attribute.
func comparisonOverviews(cmp *analysis.Comparison) ([]report.EntityOverview, error) {
	out := make([]report.EntityOverview, 0, len(cmp.Series))
	for i, s := range cmp.Series {
		items, err := cmp.Overview(i)
		if err != nil {
			return nil, fmt.Errorf("overview of %s: %w", s.Label, err)
		}
		out = append(out, report.EntityOverview{Name: s.Label, Items: items})
	}
	return out, nil
}
