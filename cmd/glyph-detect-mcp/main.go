package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/ironsheep/glyph-detect-mcp/internal/config"
	"github.com/ironsheep/glyph-detect-mcp/internal/detection"
	"github.com/ironsheep/glyph-detect-mcp/internal/imaging"
	"github.com/ironsheep/glyph-detect-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const logLevelEnv = "GLYPH_DETECT_LOG_LEVEL"

func main() {
	// Configure logging to stderr (stdout is for MCP protocol and results)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "--version", "-v", "version":
		printVersion()
		return
	case "--help", "-h", "help":
		printHelp()
		return
	case "serve":
		err = runServe(args)
	case "detect":
		err = runDetect(args, false)
	case "watch":
		err = runDetect(args, true)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		printHelp()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func debugEnabled() bool {
	return os.Getenv(logLevelEnv) == "debug"
}

func printVersion() {
	fmt.Printf("glyph-detect-mcp %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
}

func printHelp() {
	fmt.Println("glyph-detect-mcp - square marker candidate detection")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  glyph-detect-mcp [serve] [-config file]          Run the MCP server on stdin/stdout")
	fmt.Println("  glyph-detect-mcp detect [-config file] image...  Detect candidates in each image")
	fmt.Println("  glyph-detect-mcp watch -config file image...     Detect continuously, reloading the config on change")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=debug    Enable debug logging\n", logLevelEnv)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "configuration file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if debugEnabled() {
		log.Printf("Glyph Detect MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	return srv.Run()
}

// frameReport is one line of detect/watch output.
type frameReport struct {
	Path       string           `json:"path"`
	Sequence   uint64           `json:"sequence"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	Components int              `json:"components"`
	Candidates []detection.Quad `json:"candidates"`
}

func runDetect(args []string, watch bool) error {
	name := "detect"
	if watch {
		name = "watch"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", "", "configuration file")
	interval := fs.Duration("interval", 200*time.Millisecond, "delay between frames in watch mode")
	fs.Parse(args)

	paths := fs.Args()
	if len(paths) == 0 {
		return fmt.Errorf("no images given")
	}
	if watch && *configPath == "" {
		return fmt.Errorf("watch needs -config")
	}

	var logger *log.Logger
	if debugEnabled() {
		logger = log.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var current func() *config.Config
	if watch {
		w, err := config.NewWatcher(*configPath, log.Default())
		if err != nil {
			return err
		}
		go w.Run(ctx)
		current = w.Current
	} else {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			return err
		}
		current = func() *config.Config { return cfg }
	}

	applied := current()
	det, err := applied.NewDetector()
	if err != nil {
		return err
	}

	seq := imaging.NewFileSequence(paths, imaging.NewImageCache())
	seq.ResizeFactor = func() float64 { return current().FrameResizeFactor }
	var source detection.FrameSource = seq
	if watch {
		// Files are re-read every pass so that edited images show up.
		seq = imaging.NewFileSequence(paths, nil)
		seq.ResizeFactor = func() float64 { return current().FrameResizeFactor }
		seq.Loop = true
		source = &pacedSource{src: seq, interval: *interval}
	}

	enc := json.NewEncoder(os.Stdout)
	runner := &detection.Runner{
		Detector: det,
		Source:   source,
		Logger:   logger,
		Params: func() detection.Params {
			cfg := current()
			if cfg != applied {
				if err := cfg.Apply(det); err != nil {
					log.Printf("keeping previous detectors: %v", err)
				}
				applied = cfg
			}
			return cfg.Params()
		},
		OnResult: func(res *detection.Result) {
			enc.Encode(frameReport{
				Path:       seq.Current(),
				Sequence:   res.Sequence,
				Width:      res.Width,
				Height:     res.Height,
				Components: len(res.Components),
				Candidates: res.Quads(),
			})
		},
	}

	err = runner.Run(ctx)
	if watch && ctx.Err() != nil {
		return nil
	}
	return err
}

// pacedSource spaces out frames from a looping source so that watch mode
// does not spin.
type pacedSource struct {
	src      detection.FrameSource
	interval time.Duration
	last     time.Time
}

func (p *pacedSource) Next(ctx context.Context) (*image.Gray, error) {
	if wait := p.interval - time.Since(p.last); !p.last.IsZero() && wait > 0 {
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	p.last = time.Now()
	return p.src.Next(ctx)
}
