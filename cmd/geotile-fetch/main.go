package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/paulmach/orb/maptile"
	"gopkg.in/yaml.v3"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/geotilecore/geotilecore/cachebin"
	"github.com/geotilecore/geotilecore/httpclient"
	"github.com/geotilecore/geotilecore/tilekey"
	"github.com/geotilecore/geotilecore/tilepipeline"
)

var (
	urlTemplateFlag     string
	zFlag, xFlag, yFlag int
	profileFlag         string
	dbFilenameFlag      string
	maxAgeFlag          time.Duration
	configFileFlag      string
	verbosityTraceFlag  bool
	logFilenameFlag     string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&urlTemplateFlag, "url", "", "Tile URL template, e.g. https://tiles.example.com/{z}/{x}/{y}.png")
	flag.IntVar(&zFlag, "z", 0, "Tile zoom level")
	flag.IntVar(&xFlag, "x", 0, "Tile column")
	flag.IntVar(&yFlag, "y", 0, "Tile row (XYZ convention)")
	flag.StringVar(&profileFlag, "profile", "spherical-mercator", "Tiling profile name")
	flag.StringVar(&dbFilenameFlag, "db", "cache.db", "Cache DB file name (use 'memory' for in-memory db)")
	flag.DurationVar(&maxAgeFlag, "max-age", 0, "Cache policy max age override (0 uses the response's own freshness lifetime)")
	flag.StringVar(&configFileFlag, "config", "", "Optional YAML file overlaying environment-derived settings")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

// fileOverrides is the shape of an optional YAML config overlay.
// Any field left unset falls back to the flag/environment default.
type fileOverrides struct {
	URLTemplate string `yaml:"urlTemplate"`
	Profile     string `yaml:"profile"`
	DB          string `yaml:"db"`
}

func main() {
	flag.Parse()

	logLevel := zerolog.InfoLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	logOutputs := []io.Writer{zerolog.ConsoleWriter{Out: os.Stdout}}
	if logFilenameFlag != "" {
		f, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot open log file")
		}
		logOutputs = append(logOutputs, f)
	}
	log.Logger = log.Level(logLevel).
		Output(zerolog.MultiLevelWriter(logOutputs...)).
		With().Str("version", version).Logger()

	if configFileFlag != "" {
		applyFileOverrides(configFileFlag)
	}

	if urlTemplateFlag == "" {
		log.Fatal().Msg("please specify -url")
	}

	dbFilename := dbFilenameFlag
	if dbFilename == "memory" {
		dbFilename = "file::memory:?cache=shared"
	}

	cache := cachebin.NewCache()
	bin, err := cachebin.NewSQLiteBin(dbFilename)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open cache db")
	}
	cache.SetBin(cachebin.DefaultBinName, bin)

	policy := cachebin.DefaultPolicy
	if maxAgeFlag > 0 {
		policy.MaxAge = maxAgeFlag
	}

	client := httpclient.New(cache, httpclient.WithPolicy(policy))
	pipeline := tilepipeline.New(client, urlTemplateFlag)

	key := tilekey.New(tileZoom(zFlag), uint32(xFlag), uint32(yFlag), profileFlag)
	log.Info().Str("key", key.String()).Msg("fetching tile")

	result := pipeline.Fetch(key, nil)
	if !result.OK() {
		log.Fatal().Str("code", result.Code.String()).Str("detail", result.ErrorDetail).Msg("fetch failed")
	}

	log.Info().
		Bool("fromCache", result.FromCache).
		Dur("duration", result.Duration).
		Msg("fetch succeeded")
	fmt.Fprintf(os.Stdout, "OK fromCache=%v duration=%s\n", result.FromCache, result.Duration)
}

func tileZoom(z int) maptile.Zoom {
	return maptile.Zoom(z)
}

func applyFileOverrides(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("cannot read config file")
	}
	var overrides fileOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("cannot parse config file")
	}
	if overrides.URLTemplate != "" {
		urlTemplateFlag = overrides.URLTemplate
	}
	if overrides.Profile != "" {
		profileFlag = overrides.Profile
	}
	if overrides.DB != "" {
		dbFilenameFlag = overrides.DB
	}
}
