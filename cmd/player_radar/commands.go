package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/syohex/go-texttable"
	"golang.org/x/sync/errgroup"

	"github.com/user/player_radar_go/internal/analysis"
	"github.com/user/player_radar_go/internal/api"
	"github.com/user/player_radar_go/internal/report"
	"github.com/user/player_radar_go/internal/service"
)

// CommonOpts contains information that is common for all commands.
type CommonOpts struct {
	Version    string
	Catalog    string
	DataDir    string
	DB         string
	Presets    string
	CacheTTL   time.Duration
	NameColumn string
}

// Set sets the common options.
func (c *CommonOpts) Set(cc CommonOpts) {
	*c = cc
}

// SelectionOpts are the attribute and population flags shared by compare and overview.
type SelectionOpts struct {
	Attrs      []string `long:"attr"        description:"attribute to compare, repeatable; overrides --group"`
	Group      string   `long:"group"       description:"named stat group"`
	MinMinutes float64  `long:"min-minutes" description:"drop players with fewer minutes from the reference"`
	Derived    bool     `long:"derived"     description:"add per-90 derived columns"`
}

func (o SelectionOpts) selection() service.Selection {
	return service.Selection{Attributes: o.Attrs, Group: o.Group, MinMinutes: o.MinMinutes, Derived: o.Derived}
}

// DatasetsCmd lists the known datasets.
type DatasetsCmd struct {
	CommonOpts
}

// Execute runs the command.
func (d *DatasetsCmd) Execute([]string) error {
	app, err := NewApp(d.CommonOpts)
	if err != nil {
		return err
	}
	defer app.Close()

	tbl := &texttable.TextTable{}
	if err := tbl.SetHeader("Dataset", "League", "Season", "Source"); err != nil {
		return err
	}
	for _, e := range app.Catalog.Entries {
		if err := tbl.AddRow(e.ID(), e.League, e.Year, e.Path); err != nil {
			return err
		}
	}
	if app.Store != nil {
		infos, err := app.Store.List(context.Background())
		if err != nil {
			return err
		}
		for _, info := range infos {
			league, year, _ := strings.Cut(info.ID, "/")
			src := fmt.Sprintf("db (%d players, %s)", info.Players, info.Imported().Format("2006-01-02"))
			if err := tbl.AddRow(info.ID, league, year, src); err != nil {
				return err
			}
		}
	}
	fmt.Print(tbl.Draw())
	return nil
}

// PlayersCmd lists the players of one dataset.
type PlayersCmd struct {
	CommonOpts
	Dataset    string  `long:"dataset"     required:"true" description:"dataset ID (LEAGUE/YEAR)"`
	MinMinutes float64 `long:"min-minutes"                 description:"drop players with fewer minutes"`
	Filter     string  `long:"filter"                      description:"case-insensitive name substring"`
}

// Execute runs the command.
func (p *PlayersCmd) Execute([]string) error {
	app, err := NewApp(p.CommonOpts)
	if err != nil {
		return err
	}
	defer app.Close()

	players, err := app.Service.Players(context.Background(), p.Dataset, service.Selection{MinMinutes: p.MinMinutes})
	if err != nil {
		return err
	}
	filter := strings.ToLower(p.Filter)
	tbl := &texttable.TextTable{}
	if err := tbl.SetHeader("Player", "Squad", "Pos", "Min"); err != nil {
		return err
	}
	n := 0
	for _, e := range players {
		if filter != "" && !strings.Contains(strings.ToLower(e.Name), filter) {
			continue
		}
		minutes := "-"
		if v, ok := e.Value(service.MinutesAttribute); ok {
			minutes = fmt.Sprintf("%g", v)
		}
		if err := tbl.AddRow(e.Name, e.Info["Squad"], e.Info["Pos"], minutes); err != nil {
			return err
		}
		n++
	}
	fmt.Print(tbl.Draw())
	log.Printf("[INFO] %d of %d players", n, len(players))
	return nil
}

// CompareCmd compares two players and optionally writes charts and a PDF report.
type CompareCmd struct {
	CommonOpts
	SelectionOpts
	Dataset   string `long:"dataset"   description:"dataset of both players"`
	DatasetA  string `long:"dataset-a" description:"dataset of the first player, overrides --dataset"`
	DatasetB  string `long:"dataset-b" description:"dataset of the second player, overrides --dataset"`
	PlayerA   string `long:"player-a"  required:"true" description:"first player"`
	PlayerB   string `long:"player-b"  required:"true" description:"second player"`
	Missing   string `long:"missing"   default:"gap" choice:"gap" choice:"zero" choice:"abort" description:"what to do with missing values"`
	Clamp     bool   `long:"clamp"     description:"clamp normalized values to [0,1]"`
	SkipEmpty bool   `long:"skip-empty" description:"drop attributes without a reference range instead of failing"`
	PDF       string `long:"pdf"       description:"write a PDF report"`
	PNG       string `long:"png"       description:"write the radar chart as PNG"`
	SVG       string `long:"svg"       description:"write the radar chart as SVG"`
}

func (c *CompareCmd) request() (service.CompareRequest, error) {
	a, b := c.DatasetA, c.DatasetB
	if a == "" {
		a = c.Dataset
	}
	if b == "" {
		b = c.Dataset
	}
	if a == "" || b == "" {
		return service.CompareRequest{}, errors.New("a dataset is required, use --dataset or --dataset-a/--dataset-b")
	}

	opts := analysis.Options{SkipEmptyRanges: c.SkipEmpty, Missing: missingPolicy(c.Missing)}
	if c.Clamp {
		opts.Clamp = analysis.ClampUnit
	}
	return service.CompareRequest{
		A:         service.PlayerRef{Dataset: a, Name: c.PlayerA},
		B:         service.PlayerRef{Dataset: b, Name: c.PlayerB},
		Selection: c.selection(),
		Options:   &opts,
	}, nil
}

// missingPolicy maps the gap/zero/abort names; anything else is a gap.
func missingPolicy(name string) analysis.MissingPolicy {
	switch name {
	case "zero":
		return analysis.MissingAsZero
	case "abort":
		return analysis.MissingAbort
	}
	return analysis.MissingAsGap
}

// Execute runs the command.
func (c *CompareCmd) Execute([]string) error {
	req, err := c.request()
	if err != nil {
		return err
	}
	app, err := NewApp(c.CommonOpts)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.GenerateReport(context.Background(), req, ReportOutputs{PDF: c.PDF, PNG: c.PNG, SVG: c.SVG})
	if err != nil {
		return err
	}
	if len(res.GroupDropped) > 0 {
		log.Printf("[WARN] group attributes not in the datasets: %s", strings.Join(res.GroupDropped, ", "))
	}
	out, err := report.FormatComparisonTable(res.Comparison)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// OverviewCmd shows one player against their own dataset.
type OverviewCmd struct {
	CommonOpts
	SelectionOpts
	Dataset string `long:"dataset" required:"true" description:"dataset ID (LEAGUE/YEAR)"`
	Player  string `long:"player"  required:"true" description:"player name"`
	Clamp   bool   `long:"clamp"   description:"clamp normalized values to [0,1]"`
	PNG     string `long:"png"     description:"write the overview chart as PNG"`
}

// Execute runs the command.
func (o *OverviewCmd) Execute([]string) error {
	app, err := NewApp(o.CommonOpts)
	if err != nil {
		return err
	}
	defer app.Close()

	req := service.OverviewRequest{Player: service.PlayerRef{Dataset: o.Dataset, Name: o.Player}, Selection: o.selection()}
	if o.Clamp {
		req.Clamp = analysis.ClampUnit
	}
	res, err := app.Service.Overview(context.Background(), req)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		log.Printf("[WARN] %s", w)
	}

	if o.PNG != "" {
		img, err := report.CreateOverviewPlot(res.Entity.Label(), res.Items, "png")
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.PNG, img, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", o.PNG, err)
		}
		log.Printf("[INFO] chart written: %s", o.PNG)
	}

	out, err := report.FormatOverviewTable(res.Items)
	if err != nil {
		return err
	}
	fmt.Printf("%s (reference %s)\n%s", res.Entity.Label(), res.Reference, out)
	return nil
}

// ImportCmd copies catalog datasets into the database.
type ImportCmd struct {
	CommonOpts
	Args struct {
		IDs []string `positional-arg-name:"dataset" description:"dataset IDs, all catalog entries when empty"`
	} `positional-args:"yes"`
}

// Execute runs the command.
func (i *ImportCmd) Execute([]string) error {
	if i.DB == "" {
		return errors.New("import needs --db")
	}
	app, err := NewApp(i.CommonOpts)
	if err != nil {
		return err
	}
	defer app.Close()

	ids := i.Args.IDs
	if len(ids) == 0 {
		ids = app.Catalog.IDs()
	}
	ctx := context.Background()
	for _, id := range ids {
		pop, err := app.Files.Population(ctx, id)
		if err != nil {
			return fmt.Errorf("read %s: %w", id, err)
		}
		if err := app.Store.Import(ctx, pop); err != nil {
			return fmt.Errorf("import %s: %w", id, err)
		}
		log.Printf("[INFO] imported %s: %d players", pop.Key, len(pop.Entities))
	}
	return nil
}

// ServeCmd runs the HTTP API.
type ServeCmd struct {
	CommonOpts
	Listen  string   `long:"listen" env:"LISTEN" default:"localhost:8080" description:"listen address"`
	Origins []string `long:"origin" env:"ORIGINS" env-delim:"," description:"allowed CORS origin, repeatable"`
}

// Execute runs the command.
func (s *ServeCmd) Execute([]string) error {
	app, err := NewApp(s.CommonOpts)
	if err != nil {
		return err
	}
	defer app.Close()

	var imported api.DatasetLister
	if app.Store != nil {
		imported = app.Store
	}
	srv := &http.Server{
		Addr:              s.Listen,
		Handler:           api.NewRouter(app.Service, app.Catalog, imported, s.Origins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	go func() { // catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		sig := <-stop
		log.Printf("[WARN] caught signal: %s", sig)
		cancel(fmt.Errorf("caught signal: %s", sig))
	}()

	ewg, ctx := errgroup.WithContext(ctx)
	ewg.Go(func() error {
		log.Printf("[INFO] listening on %s", s.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	ewg.Go(func() error {
		<-ctx.Done()
		log.Printf("[INFO] stopping server")
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		return srv.Shutdown(shutdownCtx)
	})

	if err := ewg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
