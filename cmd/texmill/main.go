// Command texmill compiles LaTeX documents to PDF: one-shot builds,
// a recompile-on-change watcher, an HTTP service, and an MCP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/texmill/texmill"
	"github.com/texmill/texmill/internal/compile"
	"github.com/texmill/texmill/internal/config"
	"github.com/texmill/texmill/internal/logfields"
	texmcp "github.com/texmill/texmill/internal/mcp"
	"github.com/texmill/texmill/internal/metrics"
	"github.com/texmill/texmill/internal/report"
	"github.com/texmill/texmill/internal/runner"
	"github.com/texmill/texmill/internal/server"
	"github.com/texmill/texmill/internal/watch"
	"github.com/texmill/texmill/internal/workspace"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"texmill.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct{} `cmd:"" help:"Start the HTTP compilation service"`

	Compile struct {
		Dir string `arg:"" optional:"" default:"." help:"Document directory with main.tex at its root"`
		Out string `short:"o" help:"Artifact destination (default main.pdf inside the directory)"`
		Log string `help:"Write the compilation log to this file instead of stderr"`
	} `cmd:"" help:"Compile a document directory once"`

	Watch struct {
		Dir string `arg:"" optional:"" default:"." help:"Document directory with main.tex at its root"`
		Out string `short:"o" help:"Artifact destination (default main.pdf inside the directory)"`
	} `cmd:"" help:"Recompile whenever the document sources change"`

	MCP struct {
		HTTP         string `help:"Serve MCP over streamable HTTP on this address instead of stdio"`
		Instructions bool   `help:"Print model instructions and exit"`
	} `cmd:"" name:"mcp" help:"Start the MCP server (stdio by default)"`

	Version struct{} `cmd:"" help:"Print the version"`
}

func main() {
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "texmill: %v\n", err)
		os.Exit(1)
	}

	level := cfg.LogLevel()
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	// Stderr keeps stdout clean for the MCP stdio transport.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch strings.Fields(kctx.Command())[0] {
	case "serve":
		err = runServe(ctx, cfg)
	case "compile":
		err = runCompile(ctx, cfg)
	case "watch":
		err = runWatch(ctx, cfg)
	case "mcp":
		err = runMCP(ctx, cfg)
	case "version":
		fmt.Println(texmill.Version)
	}

	if err != nil {
		slog.Error("command failed", logfields.Error(err))
		os.Exit(1)
	}
}

func newRunner(cfg *config.Config) *runner.Runner {
	return &runner.Runner{Timeout: cfg.Timeout(), MaxOutput: cfg.MaxOutputBytes()}
}

func newStore(cfg *config.Config) (report.Store, error) {
	var disk *report.DiskStore
	if cfg.Store.Dir != "" {
		disk = report.NewDiskStoreAt(cfg.Store.Dir)
	} else {
		disk = report.NewDiskStore()
	}
	return report.NewLRUStore(cfg.StoreCache(), disk)
}

func runServe(ctx context.Context, cfg *config.Config) error {
	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	rec := metrics.NewPrometheusRecorder(nil)
	engine := &compile.Engine{Config: cfg, Runner: newRunner(cfg), Metrics: rec}

	return server.New(cfg, engine, store, rec).Serve(ctx)
}

func runCompile(ctx context.Context, cfg *config.Config) error {
	dir := CLI.Compile.Dir
	out := CLI.Compile.Out
	if out == "" {
		out = filepath.Join(dir, compile.ArtifactName)
	}

	var skip []string
	if rel, err := filepath.Rel(dir, out); err == nil && filepath.IsLocal(rel) {
		skip = append(skip, rel)
	}
	files, err := workspace.Collect(dir, skip...)
	if err != nil {
		return err
	}

	engine := &compile.Engine{Config: cfg, Runner: newRunner(cfg)}
	res, err := engine.Compile(ctx, files)
	if err != nil {
		return err
	}

	if CLI.Compile.Log != "" {
		if err := os.WriteFile(CLI.Compile.Log, []byte(res.Log+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing log: %w", err)
		}
	} else {
		fmt.Fprintln(os.Stderr, res.Log)
	}

	if !res.ArtifactProduced() {
		return fmt.Errorf("no artifact produced after %d passes", len(res.Passes))
	}
	if err := os.WriteFile(out, res.Artifact, 0o644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	slog.Info("artifact written", logfields.Path(out), logfields.Bytes(len(res.Artifact)))
	return nil
}

func runWatch(ctx context.Context, cfg *config.Config) error {
	w := &watch.Watcher{
		Engine:   &compile.Engine{Config: cfg, Runner: newRunner(cfg)},
		Dir:      CLI.Watch.Dir,
		Output:   CLI.Watch.Out,
		Debounce: cfg.Debounce(),
	}
	return w.Run(ctx)
}

func runMCP(ctx context.Context, cfg *config.Config) error {
	if CLI.MCP.Instructions {
		fmt.Print(texmcp.Instructions)
		return nil
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	engine := &compile.Engine{Config: cfg, Runner: newRunner(cfg)}
	srv := texmcp.NewServer(engine, store)

	if CLI.MCP.HTTP != "" {
		return serveMCPHTTP(ctx, srv, CLI.MCP.HTTP)
	}
	return srv.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveMCPHTTP(ctx context.Context, srv *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return srv },
		nil,
	)

	httpServer := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	slog.Info("mcp listening", slog.String("addr", addr))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
