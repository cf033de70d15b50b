package main

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/wailsapp/wails/v2"
	wailsoptions "github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/user/player_radar_go/internal/analysis"
	"github.com/user/player_radar_go/internal/api"
	"github.com/user/player_radar_go/internal/report"
	"github.com/user/player_radar_go/internal/service"
)

//go:embed all:frontend/dist
var assets embed.FS

// GUICmd opens the desktop window.
type GUICmd struct {
	CommonOpts
	Width  int `long:"width"  default:"1100" description:"window width"`
	Height int `long:"height" default:"800"  description:"window height"`
}

// Execute runs the command.
func (c *GUICmd) Execute([]string) error {
	app, err := NewApp(c.CommonOpts)
	if err != nil {
		return err
	}
	defer app.Close()

	gui := NewGUI(app)
	err = wails.Run(&wailsoptions.App{
		Title:  "Player Radar",
		Width:  c.Width,
		Height: c.Height,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &wailsoptions.RGBA{R: 46, G: 46, B: 46, A: 255}, // #2e2e2e
		OnStartup:        gui.Startup,
		OnShutdown:       gui.Shutdown,
		Bind: []interface{}{
			gui,
		},
	})
	if err != nil {
		return fmt.Errorf("run gui: %w", err)
	}
	return nil
}

// GUI exposes the service to the desktop frontend.
type GUI struct {
	ctx  context.Context
	app  *App
	emit func(ctx context.Context, event string, data ...interface{})
	save func(ctx context.Context, opts runtime.SaveDialogOptions) (string, error)
	wg   sync.WaitGroup
}

// NewGUI creates the bound GUI object.
func NewGUI(app *App) *GUI {
	return &GUI{app: app, emit: runtime.EventsEmit, save: runtime.SaveFileDialog}
}

// Startup is called when the window starts. The context is saved
// so we can call the runtime methods.
func (g *GUI) Startup(ctx context.Context) {
	g.ctx = ctx
	g.app.status = func(message string) {
		g.emit(ctx, "statusUpdate", message)
	}
}

// Shutdown waits for running report generations.
func (g *GUI) Shutdown(context.Context) {
	g.wg.Wait()
}

func (g *GUI) context() context.Context {
	if g.ctx == nil {
		return context.Background()
	}
	return g.ctx
}

// CompareForm is what the frontend sends for a comparison.
type CompareForm struct {
	DatasetA   string   `json:"datasetA"`
	DatasetB   string   `json:"datasetB"` // defaults to DatasetA
	PlayerA    string   `json:"playerA"`
	PlayerB    string   `json:"playerB"`
	Attrs      []string `json:"attrs"`
	Group      string   `json:"group"`
	MinMinutes float64  `json:"minMinutes"`
	Derived    bool     `json:"derived"`
	Missing    string   `json:"missing"` // gap, zero or abort
	Clamp      bool     `json:"clamp"`
	SkipEmpty  bool     `json:"skipEmpty"`
}

func (f CompareForm) request() (service.CompareRequest, error) {
	if f.DatasetA == "" {
		return service.CompareRequest{}, errors.New("choose a dataset")
	}
	if f.PlayerA == "" || f.PlayerB == "" {
		return service.CompareRequest{}, errors.New("choose two players")
	}
	b := f.DatasetB
	if b == "" {
		b = f.DatasetA
	}
	opts := analysis.Options{SkipEmptyRanges: f.SkipEmpty, Missing: missingPolicy(f.Missing)}
	if f.Clamp {
		opts.Clamp = analysis.ClampUnit
	}
	return service.CompareRequest{
		A:         service.PlayerRef{Dataset: f.DatasetA, Name: f.PlayerA},
		B:         service.PlayerRef{Dataset: b, Name: f.PlayerB},
		Selection: service.Selection{Attributes: f.Attrs, Group: f.Group, MinMinutes: f.MinMinutes, Derived: f.Derived},
		Options:   &opts,
	}, nil
}

// Datasets lists the catalog and the imported datasets.
func (g *GUI) Datasets() ([]api.DatasetDTO, error) {
	var imported api.DatasetLister
	if g.app.Store != nil {
		imported = g.app.Store
	}
	return api.ListDatasets(g.context(), g.app.Catalog, imported)
}

// Groups returns the stat group names in alphabetical order.
func (g *GUI) Groups() []string {
	return g.app.Service.Groups().Names()
}

// Players returns the player names of a dataset.
func (g *GUI) Players(dataset string, minMinutes float64) ([]string, error) {
	players, err := g.app.Service.Players(g.context(), dataset, service.Selection{MinMinutes: minMinutes})
	if err != nil {
		return nil, err
	}
	out := make([]string, len(players))
	for i, e := range players {
		out[i] = e.Name
	}
	return out, nil
}

// Attributes returns the numeric columns of a dataset.
func (g *GUI) Attributes(dataset string, derived bool) ([]string, error) {
	return g.app.Service.Attributes(g.context(), dataset, derived)
}

// Compare runs a comparison and returns its JSON form.
func (g *GUI) Compare(form CompareForm) (api.ComparisonDTO, error) {
	req, err := form.request()
	if err != nil {
		return api.ComparisonDTO{}, err
	}
	res, err := g.app.Service.Compare(g.context(), req)
	if err != nil {
		return api.ComparisonDTO{}, err
	}
	return api.NewComparisonDTO(res), nil
}

// RadarSVG renders the radar chart of a comparison as inline SVG.
func (g *GUI) RadarSVG(form CompareForm, size int) (string, error) {
	req, err := form.request()
	if err != nil {
		return "", err
	}
	res, err := g.app.Service.Compare(g.context(), req)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := report.WriteRadarSVG(&buf, res.Comparison, size); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Overview returns the single-player overview.
func (g *GUI) Overview(dataset, player, group string) (api.OverviewDTO, error) {
	res, err := g.app.Service.Overview(g.context(), service.OverviewRequest{
		Player:    service.PlayerRef{Dataset: dataset, Name: player},
		Selection: service.Selection{Group: group},
	})
	if err != nil {
		return api.OverviewDTO{}, err
	}
	return api.NewOverviewDTO(res), nil
}

// ChoosePDFPath asks where to save the report; empty when cancelled.
func (g *GUI) ChoosePDFPath() (string, error) {
	return g.save(g.context(), runtime.SaveDialogOptions{
		Title:           "Save PDF report",
		DefaultFilename: "player_radar.pdf",
		Filters:         []runtime.FileFilter{{DisplayName: "PDF (*.pdf)", Pattern: "*.pdf"}},
	})
}

// GenerateReport starts the PDF report in the background. Progress arrives as
// statusUpdate events, the outcome as generationComplete(ok, message).
func (g *GUI) GenerateReport(form CompareForm, pdfPath string) (string, error) {
	if pdfPath == "" {
		return "", errors.New("choose where to save the PDF")
	}
	req, err := form.request()
	if err != nil {
		return "", err
	}

	ctx := g.context()
	g.emit(ctx, "clearLog")
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				msg := fmt.Sprintf("panic recovered: %v", r)
				log.Printf("[ERROR] %s", msg)
				g.emit(ctx, "generationComplete", false, msg)
			}
		}()

		g.emit(ctx, "generationStart")
		if _, err := g.app.GenerateReport(ctx, req, ReportOutputs{PDF: pdfPath}); err != nil {
			msg := fmt.Sprintf("Error generating report: %v", err)
			log.Printf("[WARN] %s", msg)
			g.emit(ctx, "generationComplete", false, msg)
			return
		}
		g.emit(ctx, "generationComplete", true, "Report saved to "+pdfPath)
	}()
	return "Report generation started", nil
}
