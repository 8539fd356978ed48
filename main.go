package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nstehr/lantern/agent"
	"github.com/nstehr/lantern/config"
	"github.com/nstehr/lantern/ipc"
	"github.com/nstehr/lantern/replay"
)

const banner = `
██╗      █████╗ ███╗   ██╗████████╗███████╗██████╗ ███╗   ██╗
██║     ██╔══██╗████╗  ██║╚══██╔══╝██╔════╝██╔══██╗████╗  ██║
██║     ███████║██╔██╗ ██║   ██║   █████╗  ██████╔╝██╔██╗ ██║
██║     ██╔══██║██║╚██╗██║   ██║   ██╔══╝  ██╔══██╗██║╚██╗██║
███████╗██║  ██║██║ ╚████║   ██║   ███████╗██║  ██║██║ ╚████║
╚══════╝╚═╝  ╚═╝╚═╝  ╚═══╝   ╚═╝   ╚══════╝╚═╝  ╚═╝╚═╝  ╚═══╝

Turn Planning for Day/Night Grid Games`

func main() {
	configPath := flag.String("config", "", "path to a YAML tuning file")
	socketPath := flag.String("socket", "/tmp/lantern.sock", "unix socket to listen on (empty to disable)")
	wsAddr := flag.String("ws-addr", "", "address for the websocket listener, e.g. :8080 (empty to disable)")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	replayDir := flag.String("replay-dir", "", "record every planned turn under this directory")
	replayFile := flag.String("replay", "", "re-plan a recorded match and report differing turns, then exit")
	annotate := flag.Bool("annotate", false, "emit debug annotation tokens")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}
	if *annotate {
		cfg.Annotate = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *replayFile != "" {
		code := verify(ctx, cfg, *replayFile)
		stop()
		os.Exit(code)
	}

	fmt.Println(banner)
	slog.Info("starting lantern", "turnBudget", cfg.TurnBudget, "doctrine", cfg.Doctrine.Name)

	if *socketPath == "" && *wsAddr == "" {
		slog.Error("nothing to listen on: set -socket or -ws-addr")
		os.Exit(1)
	}

	serve := func(t ipc.Transport) {
		handleConn(ctx, cfg, *replayDir, t)
	}

	if *socketPath != "" {
		// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
		if err := os.RemoveAll(*socketPath); err != nil {
			slog.Error("failed to clean up socket", "path", *socketPath, "error", err)
			os.Exit(1)
		}
		listener, err := net.Listen("unix", *socketPath)
		if err != nil {
			slog.Error("failed to listen on socket", "path", *socketPath, "error", err)
			os.Exit(1)
		}
		defer listener.Close()
		defer os.Remove(*socketPath)

		slog.Info("listening on domain socket", "path", *socketPath)
		go acceptLoop(ctx, listener, serve)
	}

	if *wsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", ipc.WebSocketHandler(serve))
		srv := &http.Server{Addr: *wsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			slog.Info("listening for websockets", "addr", *wsAddr, "path", "/ws")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("websocket listener failed", "error", err)
				stop()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	<-ctx.Done()
	slog.Info("shutting down")
}

func acceptLoop(ctx context.Context, listener net.Listener, serve func(ipc.Transport)) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				slog.Error("failed to accept connection", "error", err)
				continue
			}
		}
		slog.Info("new connection accepted")
		go serve(ipc.NewStreamTransport(conn))
	}
}

// handleConn runs one player session until the runner hangs up.
func handleConn(ctx context.Context, cfg config.Config, replayDir string, t ipc.Transport) {
	session, err := agent.New(cfg, replayDir)
	if err != nil {
		slog.Error("failed to start session", "error", err)
		t.Close()
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Error("failed to close replay", "match", session.Match, "error", err)
		}
	}()

	c := ipc.NewConnection(t, nil)
	session.Register(c)
	c.ReadLoop(ctx)
}

// verify replays a recording and returns the process exit code.
func verify(ctx context.Context, cfg config.Config, path string) int {
	records, err := replay.ReadAll(path)
	if err != nil {
		slog.Error("failed to read replay", "path", path, "error", err)
		return 1
	}
	report, err := agent.Verify(ctx, cfg, records)
	if err != nil {
		slog.Error("replay failed", "path", path, "error", err)
		return 1
	}
	for _, m := range report.Mismatches {
		fmt.Printf("%s turn %d\n  recorded: %v\n  replayed: %v\n", m.Match, m.Turn, m.Want, m.Got)
	}
	slog.Info("replay checked",
		"path", path,
		"turns", report.Turns,
		"skipped", report.Skipped,
		"mismatches", len(report.Mismatches),
	)
	if len(report.Mismatches) > 0 {
		return 1
	}
	return 0
}
