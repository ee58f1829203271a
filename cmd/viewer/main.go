// cmd/viewer/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-broadphase/pkg/config"
	"github.com/opd-ai/go-broadphase/pkg/inspect"
	"github.com/opd-ai/go-broadphase/pkg/logging"
	"github.com/opd-ai/go-broadphase/pkg/physics"
	"github.com/opd-ai/go-broadphase/pkg/render"
	engorender "github.com/opd-ai/go-broadphase/pkg/render/engo"
	"github.com/opd-ai/go-broadphase/pkg/scene"
	"github.com/opd-ai/go-broadphase/pkg/simulation"
	"github.com/opd-ai/go-broadphase/pkg/validation"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "config.json", "Path to configuration file")
	preset := flag.String("preset", "", "World preset to apply over the configuration")
	scenePath := flag.String("scene", "", "Scene file to load into the world")
	renderer := flag.String("renderer", "terminal", "Renderer type: 'terminal' or 'engo'")
	follow := flag.String("follow", "", "Tag of the body to drive and follow (engo only)")
	fullscreen := flag.Bool("fullscreen", false, "Run in fullscreen mode (engo only)")
	width := flag.Int("width", 1024, "Window width in pixels, or columns for the terminal")
	height := flag.Int("height", 768, "Window height in pixels, or rows for the terminal")
	fps := flag.Int("fps", 10, "Terminal frames per second")
	connect := flag.String("connect", "", "Inspector address to view instead of a local world (terminal only)")
	codec := flag.String("codec", inspect.CodecMsgpack, "Inspector frame codec: 'json' or 'msgpack'")
	tags := flag.String("tags", "", "Comma separated body tags to show from the inspector")
	flag.Parse()

	cols, rows := *width, *height
	if cols > 200 || rows > 80 {
		cols, rows = 80, 40
	}

	if *connect != "" {
		if err := startRemoteViewer(*connect, *codec, *tags, logger, cols, rows); err != nil {
			logger.Error(ctx, "Remote viewer failed", err, "address", *connect)
			os.Exit(1)
		}
		return
	}

	world, err := buildWorld(*configPath, *preset, *scenePath)
	if err != nil {
		logger.Error(ctx, "Failed to build world", err,
			"config_path", *configPath,
			"scene_path", *scenePath,
		)
		os.Exit(1)
	}
	world.SetLogger(logger.Component("simulation"))

	switch *renderer {
	case "engo":
		startEngoViewer(world, *follow, *width, *height, *fullscreen)
	case "terminal":
		fallthrough
	default:
		startTerminalViewer(world, logger, cols, rows, *fps)
	}
}

// buildWorld loads the configuration (or the defaults), applies the preset
// and overrides, and populates the world from the scene file if given.
func buildWorld(configPath, preset, scenePath string) (*simulation.World, error) {
	cfg := config.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if cfg, err = config.LoadConfig(configPath); err != nil {
			return nil, err
		}
	}
	if preset != "" {
		if err := config.ApplyPreset(cfg, preset); err != nil {
			return nil, err
		}
	}
	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		return nil, err
	}
	if err := validation.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	world := simulation.NewWorld(cfg)
	if scenePath != "" {
		sc, err := scene.Load(scenePath)
		if err != nil {
			return nil, err
		}
		if _, err := sc.Apply(world); err != nil {
			return nil, err
		}
	}
	return world, nil
}

// startEngoViewer opens a window showing the world
func startEngoViewer(world *simulation.World, follow string, width, height int, fullscreen bool) {
	viewer := engorender.NewViewerScene(world, follow)
	viewer.ViewWidth = float64(width)
	viewer.ViewHeight = float64(height)

	opts := engo.RunOptions{
		Title:      "Broadphase Viewer",
		Width:      width,
		Height:     height,
		Fullscreen: fullscreen,
		VSync:      true,
	}

	engo.Run(opts, viewer)
}

// startTerminalViewer steps the world at its configured rate and redraws it
// as ASCII until interrupted.
func startTerminalViewer(world *simulation.World, logger *logging.Logger, cols, rows, fps int) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	term := render.NewTerminalRenderer(cols, rows, 1)
	term.Fit(world.Config.World.Bounds)

	if fps < 1 {
		fps = 1
	}
	frames := time.NewTicker(time.Second / time.Duration(fps))
	defer frames.Stop()

	go func() {
		if err := world.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error(context.Background(), "Simulation stopped", err)
			stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info(context.Background(), "Viewer closed", "tick", world.Tick())
			return
		case <-frames.C:
			if err := render.DrawWorld(term, world, world.Groups()...); err != nil {
				logger.Error(context.Background(), "Draw failed", err)
			}
		}
	}
}

// startRemoteViewer draws snapshots streamed by a running inspector. The view
// is fitted to the bodies of the first snapshot.
func startRemoteViewer(address, codec, tags string, logger *logging.Logger, cols, rows int) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := inspect.NewClient(address, codec)
	if err != nil {
		return err
	}
	client.SetLogger(logger)
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	if tags != "" {
		if err := client.Subscribe(strings.Split(tags, ",")...); err != nil {
			return err
		}
	}

	term := render.NewTerminalRenderer(cols, rows, 1)
	fitted := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-client.Done():
			return inspect.ErrNotConnected
		case snap := <-client.Snapshots():
			if !fitted && len(snap.Bodies) > 0 {
				term.Fit(bodiesBounds(snap))
				fitted = true
			}
			render.DrawSnapshot(term, snap)
		}
	}
}

func bodiesBounds(s *simulation.Snapshot) physics.AABB {
	box := s.Bodies[0].Box
	for _, b := range s.Bodies[1:] {
		box = box.Union(b.Box)
	}
	return box
}
