package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/user/player_radar_go/internal/analysis"
)

type event struct {
	name string
	data []interface{}
}

type eventLog struct {
	mu     sync.Mutex
	events []event
}

func (l *eventLog) emit(_ context.Context, name string, data ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event{name, data})
}

func (l *eventLog) named(name string) []event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []event
	for _, e := range l.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

func newTestGUI(t *testing.T) (*GUI, *eventLog) {
	t.Helper()
	app, err := NewApp(testOpts(t, false))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { app.Close() })

	events := &eventLog{}
	g := NewGUI(app)
	g.emit = events.emit
	g.Startup(context.Background())
	return g, events
}

func TestGUIListings(t *testing.T) {
	g, _ := newTestGUI(t)

	ds, err := g.Datasets()
	if err != nil {
		t.Fatal(err)
	}
	if len(ds) != 2 || ds[0].ID != "EPL/24-25" || ds[1].ID != "LaLiga/24-25" {
		t.Errorf("datasets = %+v", ds)
	}

	players, err := g.Players("EPL/24-25", 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(players) != 3 || players[2] != "Rodri" {
		t.Errorf("players = %v", players)
	}
	if _, err := g.Players("Ligue1/24-25", 0); err == nil {
		t.Error("unknown dataset must fail")
	}

	groups := g.Groups()
	if len(groups) != len(analysis.DefaultStatGroups) || groups[0] != "ATTACKING" {
		t.Errorf("groups = %v", groups)
	}

	attrs, err := g.Attributes("EPL/24-25", false)
	if err != nil || len(attrs) != 4 {
		t.Errorf("attributes = %v, %v", attrs, err)
	}
}

func TestGUICompare(t *testing.T) {
	g, _ := newTestGUI(t)
	form := CompareForm{
		DatasetA: "EPL/24-25",
		DatasetB: "LaLiga/24-25",
		PlayerA:  "Erling Haaland",
		PlayerB:  "Robert Lewandowski",
		Attrs:    []string{"Gls", "Ast"},
	}

	cmp, err := g.Compare(form)
	if err != nil {
		t.Fatal(err)
	}
	if cmp.Reference != "EPL/24-25 + LaLiga/24-25" || len(cmp.Series) != 2 || cmp.Series[1].Label != "Robert Lewandowski" {
		t.Errorf("comparison = %+v", cmp)
	}

	svg, err := g.RadarSVG(form, 400)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(svg, "<svg") || !strings.Contains(svg, "Gls") {
		t.Error("radar is not an SVG chart")
	}

	ov, err := g.Overview("EPL/24-25", "Rodri", "")
	if err != nil {
		t.Fatal(err)
	}
	if ov.Player != "Rodri" || len(ov.Items) != 4 {
		t.Errorf("overview = %+v", ov)
	}

	form.PlayerB = ""
	if _, err := g.Compare(form); err == nil {
		t.Error("a missing player must fail")
	}
}

func TestCompareFormRequest(t *testing.T) {
	tests := []struct {
		name    string
		form    CompareForm
		wantB   string
		missing analysis.MissingPolicy
		wantErr bool
	}{
		{"same dataset", CompareForm{DatasetA: "EPL", PlayerA: "a", PlayerB: "b"}, "EPL", analysis.MissingAsGap, false},
		{"two datasets", CompareForm{DatasetA: "EPL", DatasetB: "LaLiga", PlayerA: "a", PlayerB: "b", Missing: "zero"}, "LaLiga", analysis.MissingAsZero, false},
		{"abort", CompareForm{DatasetA: "EPL", PlayerA: "a", PlayerB: "b", Missing: "abort"}, "EPL", analysis.MissingAbort, false},
		{"no dataset", CompareForm{PlayerA: "a", PlayerB: "b"}, "", 0, true},
		{"one player", CompareForm{DatasetA: "EPL", PlayerA: "a"}, "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.form.request()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if req.B.Dataset != tt.wantB || req.Options.Missing != tt.missing {
				t.Errorf("request = %+v, options %+v", req, *req.Options)
			}
		})
	}
}

func TestGUIGenerateReport(t *testing.T) {
	g, events := newTestGUI(t)
	pdf := filepath.Join(t.TempDir(), "report.pdf")
	form := CompareForm{DatasetA: "EPL/24-25", PlayerA: "Bukayo Saka", PlayerB: "Rodri", Attrs: []string{"Gls", "Ast", "xG"}}

	if _, err := g.GenerateReport(form, ""); err == nil {
		t.Error("an empty PDF path must fail before starting")
	}

	if _, err := g.GenerateReport(form, pdf); err != nil {
		t.Fatal(err)
	}
	g.Shutdown(context.Background())

	if len(events.named("generationStart")) != 1 {
		t.Error("generationStart not emitted")
	}
	if len(events.named("statusUpdate")) == 0 {
		t.Error("no status updates forwarded")
	}
	done := events.named("generationComplete")
	if len(done) != 1 || done[0].data[0] != true {
		t.Fatalf("generationComplete = %+v", done)
	}
	data, err := os.ReadFile(pdf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}

	form.PlayerB = "Nobody"
	if _, err := g.GenerateReport(form, pdf); err != nil {
		t.Fatal(err)
	}
	g.Shutdown(context.Background())
	done = events.named("generationComplete")
	if len(done) != 2 || done[1].data[0] != false || !strings.Contains(done[1].data[1].(string), "Nobody") {
		t.Errorf("failed run = %+v", done)
	}
}

func TestGUIChoosePDFPath(t *testing.T) {
	g, _ := newTestGUI(t)
	var got runtime.SaveDialogOptions
	g.save = func(_ context.Context, opts runtime.SaveDialogOptions) (string, error) {
		got = opts
		return "", errors.New("dialog closed")
	}
	if _, err := g.ChoosePDFPath(); err == nil {
		t.Error("dialog error must be returned")
	}
	if got.DefaultFilename != "player_radar.pdf" || len(got.Filters) != 1 {
		t.Errorf("dialog options = %+v", got)
	}
}
