package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2beens/formcheck/internal/calibration"
	"github.com/2beens/formcheck/internal/engine"
	"github.com/2beens/formcheck/internal/exercise"
	"github.com/2beens/formcheck/internal/logging"
	"github.com/2beens/formcheck/internal/replay"
	"github.com/2beens/formcheck/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	framesPath := flag.String("frames", "", "path to a JSON-lines file of pose frames, - for stdin")
	exerciseName := flag.String("exercise", "pushup", "exercise [pushup | squat | pullup]")
	exercisesDir := flag.String("exercises-dir", "", "directory with exercise JSON configs, built-in configs if empty")
	targetReps := flag.Int("target", 0, "target reps, 0 for an open session")
	sensitivity := flag.String("sensitivity", "normal", "sensitivity [strict | normal | relaxed]")
	focus := flag.String("focus", "", "only report rules of this focus")
	portrait := flag.Bool("portrait", false, "frames come from a portrait camera")
	debug := flag.Bool("debug", false, "include debug text in outputs")
	printAll := flag.Bool("all", false, "print every output, not only the rep counting ones")
	remote := flag.String("remote", "", "base url of a running service, e.g. http://localhost:9000; runs locally if empty")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    *logLevel,
	})

	if *framesPath == "" {
		log.Fatalln("frames file not set, use -frames")
	}

	kind, err := exercise.ParseKind(*exerciseName)
	if err != nil {
		log.Fatalf("exercise: %s", err)
	}
	sens, err := calibration.ParseSensitivity(*sensitivity)
	if err != nil {
		log.Fatalf("sensitivity: %s", err)
	}
	cfg := engine.SessionConfig{
		Exercise:    kind,
		TargetReps:  *targetReps,
		Sensitivity: sens,
		Focus:       *focus,
		Portrait:    *portrait,
		Debug:       *debug,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	frames := os.Stdin
	if *framesPath != "-" {
		frames, err = os.Open(*framesPath)
		if err != nil {
			log.Fatalf("open frames: %s", err)
		}
		defer func() {
			if err := frames.Close(); err != nil {
				log.Warnf("close frames file: %s", err)
			}
		}()
	}

	var processor replay.Processor
	if *remote != "" {
		otelShutdown, err := tracing.HoneycombSetup(os.Getenv("HONEYCOMB_ENABLED") == "true", "formcheck-replay", nil)
		if err != nil {
			log.Fatalf("tracing setup: %s", err)
		}
		defer otelShutdown()

		tracedHttpClient := &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		}
		client, err := replay.NewRemoteClient(ctx, *remote, tracedHttpClient, cfg)
		if err != nil {
			log.Fatalf("remote session: %s", err)
		}
		log.Infof("remote session [%s] on %s", client.SessionID(), *remote)
		processor = client
	} else {
		def, err := exercise.Load(*exercisesDir, kind)
		if err != nil {
			log.Fatalf("load exercise: %s", err)
		}
		e, err := engine.New(def, cfg)
		if err != nil {
			log.Fatalf("new engine: %s", err)
		}
		processor = replay.NewLocalProcessor(e)
	}

	res, err := replay.Run(ctx, frames, processor, os.Stdout, *printAll)
	if closeErr := processor.Close(context.WithoutCancel(ctx)); closeErr != nil {
		log.Warnf("close session: %s", closeErr)
	}
	if err != nil {
		log.Errorf("replay stopped after %d frames: %s", res.Frames, err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Print(replay.FormatSummary(res.Summary, res.Complete))
}
