// Command routegen synthesizes routes and decodes compressed polylines
// offline, printing the same JSON the API serves.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/api/models"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/navigation"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/pkg/polyline"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := run(context.Background(), os.Args[1:], os.Stdout, log); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Error().Err(err).Msg("routegen failed")
		os.Exit(1)
	}
}

type options struct {
	from   string
	to     string
	seed   uint64
	steps  int
	jitter float64
	mode   string
	format string
	list   bool
	decode string
	debug  bool
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("routegen", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&o.from, "from", "", "origin location name")
	fs.StringVar(&o.to, "to", "", "destination location name")
	fs.Uint64Var(&o.seed, "seed", 0, "jitter seed; 0 draws from entropy")
	fs.IntVar(&o.steps, "steps", navigation.DefaultSteps, "number of route segments")
	fs.Float64Var(&o.jitter, "jitter", navigation.DefaultJitter, "jitter band width; 0 disables")
	fs.StringVar(&o.mode, "mode", "sequential", "deflection mode: sequential or fixed_point")
	fs.StringVar(&o.format, "format", "json", "output format: json or geojson")
	fs.BoolVar(&o.list, "list", false, "list known locations and exit")
	fs.StringVar(&o.decode, "decode", "", "comma-separated compressed polyline to decode instead of synthesizing")
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.format != "json" && o.format != "geojson" {
		return o, fmt.Errorf("unknown format %q", o.format)
	}
	return o, nil
}

func run(ctx context.Context, args []string, out io.Writer, log zerolog.Logger) error {
	o, err := parseFlags(args, out)
	if err != nil {
		return err
	}
	if !o.debug {
		log = log.Level(zerolog.InfoLevel)
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if o.decode != "" {
		return decode(o, enc, log)
	}

	cfg := navigation.ServiceConfig{
		Steps:  o.steps,
		Jitter: navigation.JitterWidth(o.jitter),
		Logger: log,
	}
	synthCfg := navigation.SynthesizerConfig{Mode: navigation.ParseDeflectionMode(o.mode)}
	if o.seed != 0 {
		synthCfg.Source = navigation.NewSeededSource(o.seed)
		cfg.PreviewSource = navigation.NewSeededSource(o.seed)
	}
	cfg.Synthesizer = navigation.NewSynthesizer(synthCfg)
	svc := navigation.NewService(cfg)

	if o.list {
		return enc.Encode(models.LocationsResponse{
			Success:   true,
			Locations: svc.Atlas().Locations(),
			Hazards:   svc.Field().Hazards(),
		})
	}

	plan, err := svc.Plan(ctx, o.from, o.to)
	if err != nil {
		return err
	}
	log.Debug().
		Int("waypoints", len(plan.Route)).
		Float64("difficulty", plan.Stats.Difficulty).
		Msg("route generated")

	if o.format == "geojson" {
		return enc.Encode(models.NewNavigationFeatureCollection(plan))
	}
	return enc.Encode(models.NewNavigationResponse(plan))
}

func decode(o options, enc *json.Encoder, log zerolog.Logger) error {
	values, err := parseValues(o.decode)
	if err != nil {
		return err
	}

	coords, err := polyline.Decode(values)
	if err != nil {
		return err
	}
	log.Debug().Int("values", len(values)).Int("points", len(coords)).Msg("polyline decoded")

	if o.format == "geojson" {
		return enc.Encode(polyline.Feature(coords))
	}
	return enc.Encode(coords)
}

func parseValues(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("decode value %q: %w", f, err)
		}
		values = append(values, v)
	}
	return values, nil
}
