// Bagdemo renders a product page with an "Add to Bag" button. Clicking it
// snapshots the product, tilts it, flies it into the bag icon and updates
// the bag label. Placeholder art is drawn procedurally unless a clip sheet is
// given.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/phanxgames/bagdrop"
	"github.com/phanxgames/bagdrop/ecs"
)

const (
	windowTitle = "Bagdrop Demo"
	screenW     = 430
	screenH     = 760
	scrollSpeed = 24
)

var (
	productBox = bagdrop.Rect{X: 20, Y: 64, Width: 390, Height: 420}
	iconPos    = bagdrop.Vec2{X: screenW - iconSize - 12, Y: 8}
	pageColor  = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

type options struct {
	configPath  string
	scriptPath  string
	sheetJSON   string
	sheetImage  string
	metricsAddr string
	logLevel    string
	dev         bool
	debug       bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "YAML or TOML sequence config (default: built-in)")
	flag.StringVar(&o.scriptPath, "script", "", "JSON script of clicks, waits and screenshots; exits when done")
	flag.StringVar(&o.sheetJSON, "sheet", "", "Aseprite/TexturePacker JSON for the bag icon clips")
	flag.StringVar(&o.sheetImage, "sheet-image", "", "PNG page for -sheet")
	flag.StringVar(&o.metricsAddr, "metrics", "", "serve Prometheus metrics on this address, e.g. :9090")
	flag.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")
	flag.BoolVar(&o.dev, "dev", false, "console logging")
	flag.BoolVar(&o.debug, "debug", false, "scene debug checks and frame stats on stderr")
	flag.Parse()
	return o
}

// Game implements ebiten.Game.
type Game struct {
	scene   *bagdrop.Scene
	seq     *bagdrop.Sequencer
	present *bagdrop.Presenter
	page    *bagdrop.Node
	button  *bagdrop.Node
	world   donburi.World
	script  *bagdrop.ScriptRunner
}

func (g *Game) Update() error {
	dt := time.Second / time.Duration(ebiten.TPS())

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.seq.Cancel()
	}
	if _, wy := ebiten.Wheel(); wy != 0 {
		g.page.SetPosition(0, min(g.page.Y+wy*scrollSpeed, 0))
	}

	g.scene.Update(dt)
	ecs.PhaseEventType.ProcessEvents(g.world)

	if g.script != nil && g.script.Done() {
		return ebiten.Termination
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(pageColor)
	g.scene.Draw(screen)

	button, label := g.present.Text()
	if g.present.TextVisible() {
		b := g.button.WorldBounds()
		ebitenutil.DebugPrintAt(screen, button, int(b.X)+16, int(b.Y+b.Height/2)-8)
	}
	ebitenutil.DebugPrintAt(screen, label, 12, 20)
}

func (g *Game) Layout(_, _ int) (int, int) {
	return screenW, screenH
}

func main() {
	opts := parseFlags()

	logger, err := bagdrop.NewLogger(opts.logLevel, opts.dev)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig(opts)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	g, err := newGame(cfg, opts, logger)
	if err != nil {
		logger.Fatal("build scene", zap.Error(err))
	}

	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetWindowSize(screenW, screenH)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Fatal("run", zap.Error(err))
	}
}

func loadConfig(opts options) (bagdrop.Config, error) {
	cfg := bagdrop.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = bagdrop.LoadConfig(opts.configPath); err != nil {
			return cfg, err
		}
	} else {
		// Aim the enter motion at the bag icon.
		cx := productBox.X + productBox.Width/2
		cy := productBox.Y + productBox.Height/2
		cfg.Motion.Enter.To.OffsetX = iconPos.X + iconSize/2 - cx
		cfg.Motion.Enter.To.OffsetY = iconPos.Y + iconSize/2 - cy
		cfg.Motion.Enter.To.ScaleX = 0.08
		cfg.Motion.Enter.To.ScaleY = 0.08
	}
	if err := cfg.ApplyEnv(bagdrop.EnvPrefix); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newGame(cfg bagdrop.Config, opts options, logger *zap.Logger) (*Game, error) {
	scene := bagdrop.NewScene()
	scene.SetDebugMode(opts.debug)

	// Page content scrolls; the overlay stays fixed.
	page := bagdrop.NewContainer("page")
	page.SetSize(screenW, screenH)
	page.Interactable = true
	overlay := bagdrop.NewContainer("overlay")
	scene.Root().AddChild(page)
	scene.Root().AddChild(overlay)

	product := bagdrop.NewContainer("product")
	product.SetPosition(productBox.X, productBox.Y)
	product.SetSize(productBox.Width, productBox.Height)
	page.AddChild(product)
	video := bagdrop.NewSprite("product-video", nil)
	video.SetSize(productBox.Width, productBox.Height)
	product.AddChild(video)
	bagdrop.NewFrameLoop(video, videoFrames(int(productBox.Width), int(productBox.Height), 8), 12)

	copyText := bagdrop.NewRect("copy", productBox.Width, 96, bagdrop.Color{R: 0.93, G: 0.93, B: 0.93, A: 1})
	copyText.SetPosition(productBox.X, productBox.Y+productBox.Height+24)
	page.AddChild(copyText)

	button := bagdrop.NewRect("button", productBox.Width, 56, bagdrop.Color{R: 0.07, G: 0.07, B: 0.07, A: 1})
	button.SetPosition(productBox.X, copyText.Y+copyText.Height+24)
	button.Interactable = true
	page.AddChild(button)

	header := bagdrop.NewRect("header", screenW, productBox.Y-8, bagdrop.Color{R: 0.07, G: 0.07, B: 0.07, A: 1})
	overlay.AddChild(header)

	front, back, err := bagSurfaces(cfg.Clips, opts)
	if err != nil {
		return nil, err
	}
	for _, n := range []*bagdrop.Node{back.Node(), front.Node()} {
		n.SetPosition(iconPos.X, iconPos.Y)
		overlay.AddChild(n)
	}
	if err := front.Play(cfg.Clips.Idle); err != nil {
		return nil, err
	}

	snapNode := bagdrop.NewSprite("snapshot", nil)
	overlay.AddChild(snapNode)
	present := bagdrop.NewPresenter(bagdrop.PresenterNodes{
		Snapshot: snapNode,
		Content:  page,
		Text:     copyText,
		Back:     back.Node(),
	})

	if opts.debug {
		overlay.AddChild(bagdrop.NewFPSWidget())
	}

	world := donburi.NewWorld()
	ecs.PhaseEventType.Subscribe(world, func(_ donburi.World, e bagdrop.Event) {
		logger.Debug("sequence event",
			zap.Stringer("kind", e.Kind),
			zap.Stringer("phase", e.Phase),
			zap.Duration("offset", e.Offset),
			zap.Int("count", e.Count))
	})

	reg := prometheus.NewRegistry()
	metrics := bagdrop.NewMetrics(reg)
	if opts.metricsAddr != "" {
		serveMetrics(opts.metricsAddr, reg, logger)
	}

	snapshots := bagdrop.NewNodeSnapshotter(1)
	seq, err := bagdrop.NewSequencer(cfg, bagdrop.Deps{
		Region:    bagdrop.NewNodeRegion(product, overlay),
		Snapshots: snapshots,
		Engine:    bagdrop.SurfacePair{Front: front, Back: back},
		Sink:      present,
		Observer:  bagdrop.Observers{metrics, ecs.NewDonburiObserver(world)},
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	scene.OnUpdate(snapshots.Update)
	scene.OnUpdate(front.Update)
	scene.OnUpdate(back.Update)
	scene.OnUpdate(seq.Update)
	scene.OnUpdate(present.Update)
	button.OnClick = func(bagdrop.ClickContext) { seq.Trigger() }

	g := &Game{scene: scene, seq: seq, present: present, page: page, button: button, world: world}
	if opts.scriptPath != "" {
		runner, err := loadScript(opts.scriptPath, seq)
		if err != nil {
			return nil, err
		}
		scene.SetScriptRunner(runner)
		g.script = runner
	}
	return g, nil
}

func bagSurfaces(names bagdrop.ClipNames, opts options) (front, back *bagdrop.SpriteSurface, err error) {
	var frontSheet, backSheet *bagdrop.ClipSheet
	if opts.sheetJSON != "" {
		if frontSheet, err = loadSheet(opts.sheetJSON, opts.sheetImage); err != nil {
			return nil, nil, err
		}
		backSheet = frontSheet
	} else {
		if frontSheet, err = placeholderSheet(names, false); err != nil {
			return nil, nil, err
		}
		if backSheet, err = placeholderSheet(names, true); err != nil {
			return nil, nil, err
		}
	}
	front = bagdrop.NewSpriteSurface(bagdrop.NewSprite("bag-front", nil), frontSheet)
	back = bagdrop.NewSpriteSurface(bagdrop.NewSprite("bag-back", nil), backSheet)
	return front, back, nil
}

func loadScript(path string, seq *bagdrop.Sequencer) (*bagdrop.ScriptRunner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	runner, err := bagdrop.LoadScript(data)
	if err != nil {
		return nil, err
	}
	runner.SetCondition("idle", func() bool { return seq.State() == bagdrop.StateIdle })
	runner.SetCondition("running", func() bool { return seq.State() == bagdrop.StateRunning })
	for p := bagdrop.PhaseIdle; p <= bagdrop.PhaseReset; p++ {
		runner.SetCondition("phase:"+p.String(), func() bool { return seq.Phase() == p })
	}
	return runner, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
}
