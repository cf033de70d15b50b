package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/hashicorp/logutils"
	"github.com/jessevdk/go-flags"
)

var options struct {
	Datasets DatasetsCmd `command:"datasets" description:"list datasets from the catalog and the database"`
	Players  PlayersCmd  `command:"players"  description:"list the players of a dataset"`
	Compare  CompareCmd  `command:"compare"  description:"compare two players on a radar chart"`
	Overview OverviewCmd `command:"overview" description:"show the normalized attribute overview of one player"`
	Import   ImportCmd   `command:"import"   description:"import catalog datasets into the database"`
	Serve    ServeCmd    `command:"serve"    description:"run the HTTP API"`
	GUI      GUICmd      `command:"gui"      description:"open the desktop window"`

	Catalog    string        `long:"catalog"     env:"CATALOG"     default:"datasets.csv" description:"dataset catalog (LEAGUE;YEAR;PATH)"`
	DataDir    string        `long:"data-dir"    env:"DATA_DIR"    default:"datasets"     description:"directory of relative catalog paths"`
	DB         string        `long:"db"          env:"DB_DSN"                             description:"SQLite database with imported datasets"`
	Presets    string        `long:"presets"     env:"PRESETS"                            description:"JSON file with stat groups and derived columns"`
	CacheTTL   time.Duration `long:"cache-ttl"   env:"CACHE_TTL"   default:"1h"           description:"how long loaded datasets are cached, 0 keeps them"`
	NameColumn string        `long:"name-column" env:"NAME_COLUMN" default:"Player"       description:"column holding player names"`
	Debug      bool          `long:"debug"       env:"DEBUG"                              description:"turn on debug mode"`
}

var version = "unknown"

func getVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}

func main() {
	fmt.Fprintf(os.Stderr, "player-radar, version: %s\n", getVersion())

	exitCode := 0
	p := flags.NewParser(&options, flags.Default)
	p.CommandHandler = func(c flags.Commander, args []string) error {
		setupLog(options.Debug)

		if options.Debug {
			log.Printf("[DEBUG] debug mode on")
		}

		commonOpts := CommonOpts{
			Version:    getVersion(),
			Catalog:    options.Catalog,
			DataDir:    options.DataDir,
			DB:         options.DB,
			Presets:    options.Presets,
			CacheTTL:   options.CacheTTL,
			NameColumn: options.NameColumn,
		}
		if cs, ok := c.(interface{ Set(CommonOpts) }); ok {
			cs.Set(commonOpts)
		}

		if err := c.Execute(args); err != nil {
			log.Printf("[ERROR] failed to execute command: %v", err)
			exitCode = 1
		}

		return nil
	}

	if _, err := p.Parse(); err != nil {
		if errors.Is(err, flags.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	os.Exit(exitCode)
}

func setupLog(dbg bool) {
	filter := &logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "WARN", "ERROR"},
		MinLevel: "INFO",
		Writer:   os.Stderr,
	}

	logFlags := log.Ldate | log.Ltime

	if dbg {
		logFlags = log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile
		filter.MinLevel = "DEBUG"
	}

	log.SetFlags(logFlags)
	log.SetOutput(filter)
}
