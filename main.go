// Command tetris runs the Tetris game server.
//
// Subcommands:
//  1. "serve" (default) – HTTP server with REST API, WebSocket and an /mcp endpoint
//  2. "stdio-mcp" – MCP stdio server; reuses a running API or starts an internal one
//  3. "validate" – checks every preset in the config directory
//  4. "autoplay" – lets the planner play, locally or against a server
//
// Flags fall back to environment variables (PORT, HOST, CONFIG_DIR, DEBUG,
// NGROK_*), and a .env file is loaded when present.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/tetris/api"
	"github.com/wricardo/mcp-training/tetris/game/config"
	"github.com/wricardo/mcp-training/tetris/game/gravity"
	"github.com/wricardo/mcp-training/tetris/game/service"
	"github.com/wricardo/mcp-training/tetris/game/session"
	"github.com/wricardo/mcp-training/tetris/transport/mcp"
	"github.com/wricardo/mcp-training/tetris/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Tetris Server"
)

const (
	defaultPort      = 8080
	defaultHost      = "localhost"
	defaultConfigDir = "configs"

	janitorInterval = time.Hour
	sessionMaxAge   = 24 * time.Hour
)

// envLoaded records whether a .env file was found at startup
var envLoaded bool

func main() {
	envLoaded = godotenv.Load() == nil

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	serve := &cli.Command{
		Name:    "serve",
		Aliases: []string{"server", "http"},
		Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Expose the server through an ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: runServe,
	}

	return &cli.Command{
		Name:    "tetris",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   defaultPort,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   defaultHost,
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   defaultConfigDir,
				Usage:   "Directory containing game configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
		},
		Commands: []*cli.Command{
			serve,
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server, starting an internal HTTP API if none is running",
				Action:  runStdioMCP,
			},
			{
				Name:   "validate",
				Usage:  "Validate every preset in the config directory",
				Action: runValidate,
			},
			{
				Name:  "autoplay",
				Usage: "Let the planner play a game",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "preset",
						Usage: "Config preset to play",
					},
					&cli.IntFlag{
						Name:  "pieces",
						Usage: "Stop after this many pieces (0 plays to game over)",
						Value: 500,
					},
					&cli.BoolFlag{
						Name:  "hold",
						Usage: "Let the planner consider the hold piece",
						Value: true,
					},
					&cli.StringFlag{
						Name:  "server",
						Usage: "Play against a running server at this URL instead of locally",
					},
				},
				Action: runAutoplay,
			},
		},
		Action: runServe,
	}
}

// newLogger returns a development logger with --debug and a production
// logger otherwise. Both write to stderr.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loggerFor(cmd *cli.Command) (*zap.Logger, error) {
	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	if envLoaded {
		logger.Debug("loaded environment variables from .env file")
	}
	return logger, nil
}

// services bundles the managers behind the game service
type services struct {
	configs  *config.Manager
	sessions *session.Manager
	game     service.GameService
}

// initializeServices wires the config and session managers into the game service
func initializeServices(configDir string, logger *zap.Logger) (*services, error) {
	configs, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessions := session.NewManager(logger)
	return &services{
		configs:  configs,
		sessions: sessions,
		game:     service.NewGameService(sessions, configs, logger),
	}, nil
}

// stack is a running API server with its WebSocket hub and gravity driver
type stack struct {
	handler *api.Server
	driver  *gravity.Driver
}

// newStack starts the hub, the gravity driver and the session janitor.
// They stop when ctx is cancelled.
func newStack(ctx context.Context, svc *services, logger *zap.Logger) *stack {
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	driver := gravity.NewDriver(svc.game, hub, logger)
	apiServer := api.NewServer(svc.game, hub, driver, logger)

	go svc.sessions.RunJanitor(ctx, janitorInterval, sessionMaxAge, func(ids []string) {
		for _, id := range ids {
			driver.Stop(id)
		}
		logger.Info("cleaned up expired sessions", zap.Strings("sessions", ids))
	})

	return &stack{handler: apiServer, driver: driver}
}

// runServe starts the HTTP server with REST API, WebSocket hub and an /mcp
// proxy endpoint, plus an optional ngrok tunnel.
func runServe(ctx context.Context, cmd *cli.Command) error {
	logger, err := loggerFor(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	svc, err := initializeServices(cmd.String("config-dir"), logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st := newStack(ctx, svc, logger)
	defer st.driver.StopAll()

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	mcpClient := mcp.NewClient("http://" + addr)
	st.handler.Handle("/mcp", mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      st.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("starting server",
		zap.String("app", AppName),
		zap.String("version", Version),
		zap.String("addr", addr),
		zap.Int("configs", svc.configs.Count()))

	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("HTTP server listening",
			zap.String("rest", "http://"+addr+"/api"),
			zap.String("websocket", "ws://"+addr+"/ws?session=<session_id>"),
			zap.String("mcp", "http://"+addr+"/mcp"))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, cmd, st.handler, logger)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("HTTP server shutdown error", zap.Error(shutdownErr))
	}

	wg.Wait()
	logger.Info("server stopped")
	return err
}

// serveNgrok exposes handler through an ngrok tunnel until ctx is done
func serveNgrok(ctx context.Context, cmd *cli.Command, handler http.Handler, logger *zap.Logger) {
	authToken := cmd.String("ngrok-auth")
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if domain := cmd.String("ngrok-domain"); domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom ngrok domain", zap.String("domain", domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	url := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("rest", url+"/api"),
		zap.String("mcp", url+"/mcp"))

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// probeAPI reports whether an API server answers at baseURL
func probeAPI(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP serves MCP over stdio. It targets the API at host:port when
// one is running, otherwise an internal server on a random loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	logger, err := loggerFor(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	baseURL := fmt.Sprintf("http://%s:%d", cmd.String("host"), cmd.Int("port"))
	if probeAPI(ctx, baseURL) {
		logger.Info("using external API server for MCP", zap.String("url", baseURL))
	} else {
		svc, err := initializeServices(cmd.String("config-dir"), logger)
		if err != nil {
			return err
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		st := newStack(ctx, svc, logger)
		defer st.driver.StopAll()

		httpServer := &http.Server{Handler: st.handler}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		logger.Info("started internal HTTP server for MCP", zap.String("url", baseURL))
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
