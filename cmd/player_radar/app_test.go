package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/player_radar_go/internal/analysis"
	"github.com/user/player_radar_go/internal/service"
)

const eplCSV = `Player;Squad;Min;Gls;Ast;xG
Erling Haaland;Manchester City;2700;27;5;25.3
Bukayo Saka;Arsenal;2450;16;11;14.1
Rodri;Manchester City;3100;8;9;5.0
Backup;Arsenal;90;0;0;-
`

const ligaCSV = `Player,Squad,Min,Gls,Ast,xG
Robert Lewandowski,Barcelona,2800,30,3,26.0
Pedri,Barcelona,2900,4,8,3.1
`

func testOpts(t *testing.T, withDB bool) CommonOpts {
	t.Helper()
	dir := t.TempDir()
	for name, data := range map[string]string{"epl.csv": eplCSV, "liga.csv": ligaCSV} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	catalog := filepath.Join(dir, "datasets.csv")
	if err := os.WriteFile(catalog, []byte("LEAGUE;YEAR;PATH\nEPL;24-25;epl.csv\nLaLiga;24-25;liga.csv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	opts := CommonOpts{Catalog: catalog, DataDir: dir, CacheTTL: time.Minute}
	if withDB {
		opts.DB = filepath.Join(dir, "radar.db")
	}
	return opts
}

func TestGenerateReport(t *testing.T) {
	opts := testOpts(t, false)
	app, err := NewApp(opts)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	out := ReportOutputs{
		PDF: filepath.Join(opts.DataDir, "report.pdf"),
		PNG: filepath.Join(opts.DataDir, "radar.png"),
		SVG: filepath.Join(opts.DataDir, "radar.svg"),
	}
	req := service.CompareRequest{
		A:         service.PlayerRef{Dataset: "EPL/24-25", Name: "Erling Haaland"},
		B:         service.PlayerRef{Dataset: "EPL", Name: "Bukayo Saka"},
		Selection: service.Selection{Attributes: []string{"Gls", "Ast", "xG"}},
	}
	res, err := app.GenerateReport(context.Background(), req, out)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Comparison.Series) != 2 || len(res.Comparison.Categories) != 3 {
		t.Fatalf("comparison = %+v", res.Comparison)
	}

	magic := map[string][]byte{
		out.PDF: []byte("%PDF"),
		out.PNG: []byte("\x89PNG"),
		out.SVG: []byte("<?xml"),
	}
	for path, want := range magic {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(data, want) {
			t.Errorf("%s starts with %q", filepath.Base(path), data[:min(len(data), 8)])
		}
	}
}

func TestReportOverviewsMatchRadar(t *testing.T) {
	app, err := NewApp(testOpts(t, false))
	if err != nil {
		t.Fatal(err)
	}
	req := service.CompareRequest{
		A:         service.PlayerRef{Dataset: "EPL/24-25", Name: "Erling Haaland"},
		B:         service.PlayerRef{Dataset: "LaLiga/24-25", Name: "Robert Lewandowski"},
		Selection: service.Selection{Attributes: []string{"Gls", "xG"}},
	}
	res, err := app.GenerateReport(context.Background(), req, ReportOutputs{})
	if err != nil {
		t.Fatal(err)
	}
	cmp := res.Comparison
	if cmp.Reference != "EPL/24-25 + LaLiga/24-25" {
		t.Fatalf("reference = %q", cmp.Reference)
	}

	overviews, err := comparisonOverviews(cmp)
	if err != nil {
		t.Fatal(err)
	}
	if len(overviews) != 2 {
		t.Fatalf("overviews = %d", len(overviews))
	}
	for i, ov := range overviews {
		if ov.Name != cmp.Series[i].Label {
			t.Errorf("overview %d named %q, series %q", i, ov.Name, cmp.Series[i].Label)
		}
		for j, it := range ov.Items {
			if want := cmp.Series[i].Points[j].Value; it.Normalized != want {
				t.Errorf("%s %s: overview %v, radar %v", ov.Name, it.Attribute, it.Normalized, want)
			}
		}
	}
	// Haaland's 27 goals are below Lewandowski's 30 on the merged scale
	if gls := overviews[0].Items[0].Normalized; gls >= 1 {
		t.Errorf("Haaland Gls = %v, want below 1 against the merged reference", gls)
	}
}

func TestGenerateReportUnknownPlayer(t *testing.T) {
	app, err := NewApp(testOpts(t, false))
	if err != nil {
		t.Fatal(err)
	}
	req := service.CompareRequest{
		A: service.PlayerRef{Dataset: "EPL/24-25", Name: "Nobody"},
		B: service.PlayerRef{Dataset: "EPL/24-25", Name: "Rodri"},
	}
	if _, err := app.GenerateReport(context.Background(), req, ReportOutputs{}); err == nil {
		t.Fatal("expected an error for an unknown player")
	}
}

func TestImportAndLoadFromStore(t *testing.T) {
	opts := testOpts(t, true)

	imp := &ImportCmd{}
	imp.Set(opts)
	if err := imp.Execute(nil); err != nil {
		t.Fatal(err)
	}

	// without the catalog file only the database can serve the dataset
	opts.Catalog = filepath.Join(opts.DataDir, "missing.csv")
	app, err := NewApp(opts)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	players, err := app.Service.Players(context.Background(), "EPL/24-25", service.Selection{MinMinutes: 270})
	if err != nil {
		t.Fatal(err)
	}
	if len(players) != 3 {
		t.Errorf("players = %d, want 3 after the minutes filter", len(players))
	}
}

func TestImportNeedsDB(t *testing.T) {
	imp := &ImportCmd{}
	imp.Set(testOpts(t, false))
	if err := imp.Execute(nil); err == nil {
		t.Fatal("expected an error without --db")
	}
}

func TestCompareCmdRequest(t *testing.T) {
	tests := []struct {
		name    string
		cmd     CompareCmd
		wantA   string
		wantB   string
		missing analysis.MissingPolicy
		wantErr bool
	}{
		{name: "shared dataset", cmd: CompareCmd{Dataset: "EPL", Missing: "gap"}, wantA: "EPL", wantB: "EPL", missing: analysis.MissingAsGap},
		{name: "override b", cmd: CompareCmd{Dataset: "EPL", DatasetB: "LaLiga", Missing: "zero"}, wantA: "EPL", wantB: "LaLiga", missing: analysis.MissingAsZero},
		{name: "abort", cmd: CompareCmd{DatasetA: "EPL", DatasetB: "EPL", Missing: "abort"}, wantA: "EPL", wantB: "EPL", missing: analysis.MissingAbort},
		{name: "no dataset", cmd: CompareCmd{DatasetA: "EPL"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.cmd.request()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if req.A.Dataset != tt.wantA || req.B.Dataset != tt.wantB {
				t.Errorf("datasets = %s, %s", req.A.Dataset, req.B.Dataset)
			}
			if req.Options == nil || req.Options.Missing != tt.missing {
				t.Errorf("options = %+v", req.Options)
			}
		})
	}
}
