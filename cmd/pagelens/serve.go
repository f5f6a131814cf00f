package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/standardbeagle/pagelens/internal/agent"
	"github.com/standardbeagle/pagelens/internal/bridge"
	"github.com/standardbeagle/pagelens/internal/browser"
	"github.com/standardbeagle/pagelens/internal/config"
	"github.com/standardbeagle/pagelens/internal/debug"
	"github.com/standardbeagle/pagelens/internal/events"
	"github.com/standardbeagle/pagelens/internal/eventlog"
	"github.com/standardbeagle/pagelens/internal/inject"
	"github.com/standardbeagle/pagelens/internal/inspector"
	"github.com/standardbeagle/pagelens/internal/queue"
	"github.com/standardbeagle/pagelens/internal/session"
	"github.com/standardbeagle/pagelens/internal/tools"
)

var serveFlags struct {
	configPath string
	pageURL    string
	browserURL string
	headless   bool
	bridgeAddr string
	dataDir    string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Attach to a page and serve the inspection tools over stdio",
}

func init() {
	serveCmd.RunE = runServe
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.configPath, "config", "", "Path to a .pagelens.kdl file (default: search upward from cwd)")
	f.StringVar(&serveFlags.pageURL, "page-url", "", "Page to inspect")
	f.StringVar(&serveFlags.browserURL, "browser-url", "", "DevTools endpoint of an existing browser (default: launch one)")
	f.BoolVar(&serveFlags.headless, "headless", true, "Run the launched browser headless")
	f.StringVar(&serveFlags.bridgeAddr, "bridge-addr", "", "Listen address for the overlay WebSocket bridge")
	f.StringVar(&serveFlags.dataDir, "data-dir", "", "Directory for inspections and event logs")
}

// pageDriver adapts the browser connection and the overlay bridge into the
// single driver surface the inspector consumes.
type pageDriver struct {
	*browser.Driver
	ws *bridge.Server
}

func (p *pageDriver) ActivateElementMode() {
	p.ws.Broadcast(bridge.Message{Type: bridge.TypeActivateElement})
}

func (p *pageDriver) ActivateRegionMode() {
	p.ws.Broadcast(bridge.Message{Type: bridge.TypeActivateRegion})
}

func (p *pageDriver) Deactivate() {
	p.ws.Broadcast(bridge.Message{Type: bridge.TypeDeactivate})
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadServeConfig()
	if err != nil {
		return err
	}

	bus := events.NewBus()

	q, err := queue.Open(cfg.Storage.DataDir, bus)
	if err != nil {
		return fmt.Errorf("failed to open inspection queue: %w", err)
	}

	elog, err := eventlog.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer elog.Close()

	drv, err := browser.Connect(ctx, cfg.Browser)
	if err != nil {
		return err
	}
	defer drv.Close()

	// Sessions: a remote backend when configured, local ids otherwise.
	var api session.API
	if cfg.Agent.BaseURL != "" {
		api = agent.NewClient(cfg.Agent.BaseURL)
	} else {
		api = agent.LocalSessions{}
	}
	sessions := session.NewManager(api)
	if _, err := sessions.EnsureSession(ctx, cfg.Agent.Name); err != nil {
		debug.Warn("serve", "starting without an agent session: %v", err)
	}
	defer sessions.CleanupCurrent("shutdown")

	// The inspector and the bridge reference each other: the bridge feeds
	// selections in, the inspector broadcasts mode changes out.
	pd := &pageDriver{Driver: drv}
	ins := inspector.New(pd, bus, time.Duration(cfg.Capture.TimeoutSeconds)*time.Second)
	ws := bridge.NewServer(ins)
	pd.ws = ws

	if err := ws.Start(cfg.Bridge.Addr); err != nil {
		return fmt.Errorf("failed to start bridge: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		ws.Shutdown(shutdownCtx)
	}()

	overlay := inject.NewOverlay("ws://" + ws.Addr() + bridge.Path)
	if err := drv.InjectScript(ctx, overlay.JS()); err != nil {
		return fmt.Errorf("failed to inject overlay: %w", err)
	}

	if err := drv.WatchEvents(ctx, elog, func() {
		sessions.CleanupCurrent("page-hide")
	}); err != nil {
		return fmt.Errorf("failed to watch page events: %w", err)
	}

	if cfg.Agent.AutoAnalyze {
		startAutoAnalyze(ctx, cfg, bus, q)
	}

	t := &tools.Tools{
		Inspector:  ins,
		Queue:      q,
		Events:     elog,
		Page:       drv,
		Screenshot: cfg.Capture.Screenshot,
	}

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: serverVersion,
		},
		&mcp.ServerOptions{
			Instructions: `In-page element inspector for ` + cfg.Browser.PageURL + `.

Available tools:
- capture_element_context: capture one element's source location and DOM context (by selector, or interactively)
- capture_area_context: capture everything relevant inside a page region
- list_inspections: read the persisted inspection queue
- update_inspection_status: report progress and results on an inspection
- execute_page_script: evaluate JavaScript in the page
- get_page_info: URL, title, viewport, and accessibility summary`,
		},
	)
	t.RegisterAll(server)

	log.SetOutput(os.Stderr)
	log.Printf("Starting %s v%s for %s", serverName, serverVersion, cfg.Browser.PageURL)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}

func loadServeConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if serveFlags.configPath != "" {
		cfg, err = config.LoadFile(serveFlags.configPath)
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, wdErr
		}
		cfg, err = config.Load(wd)
	}
	if err != nil {
		return nil, err
	}

	// Flags win over file and environment.
	if serveFlags.pageURL != "" {
		cfg.Browser.PageURL = serveFlags.pageURL
	}
	if serveFlags.browserURL != "" {
		cfg.Browser.ControlURL = serveFlags.browserURL
	}
	if serveCmd.Flags().Changed("headless") {
		cfg.Browser.Headless = serveFlags.headless
	}
	if serveFlags.bridgeAddr != "" {
		cfg.Bridge.Addr = serveFlags.bridgeAddr
	}
	if serveFlags.dataDir != "" {
		cfg.Storage.DataDir = serveFlags.dataDir
	}
	return cfg, nil
}

// startAutoAnalyze streams every finalized capture through the model and
// records the answer as the item's result.
func startAutoAnalyze(ctx context.Context, cfg *config.Config, bus *events.Bus, q *queue.Queue) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		debug.Warn("serve", "auto-analyze enabled but ANTHROPIC_API_KEY is unset")
		return
	}
	sender := agent.NewSender(apiKey, cfg.Agent.Model)

	bus.Subscribe(events.TopicElementInspected, func(payload any) {
		ev, ok := payload.(queue.FinalizedEvent)
		if !ok {
			return
		}
		for _, item := range ev.Inspections {
			item := item
			go func() {
				result, err := sender.Analyze(ctx, item)
				if err != nil {
					debug.Error("serve", "auto-analyze of %s failed: %v", item.ID, err)
					if _, uerr := q.UpdateStatus(item.ID, queue.StatusFailed, nil, err.Error()); uerr != nil {
						debug.Error("serve", "failed to record analysis failure: %v", uerr)
					}
					return
				}
				if _, err := q.UpdateStatus(item.ID, queue.StatusCompleted, nil, result); err != nil {
					debug.Error("serve", "failed to record analysis result: %v", err)
				}
			}()
		}
	})
}
