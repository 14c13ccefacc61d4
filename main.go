// main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/vinizap/lumi-notes/auth"
	"github.com/vinizap/lumi-notes/client"
	"github.com/vinizap/lumi-notes/config"
	"github.com/vinizap/lumi-notes/events"
	"github.com/vinizap/lumi-notes/filesystem"
	"github.com/vinizap/lumi-notes/gateway"
	httphandlers "github.com/vinizap/lumi-notes/http"
	"github.com/vinizap/lumi-notes/logger"
	"github.com/vinizap/lumi-notes/pins"
	"github.com/vinizap/lumi-notes/store"
	"github.com/vinizap/lumi-notes/workspace"
)

const shutdownTimeout = 10 * time.Second

// moveArgs are the -note and -to flags of move mode.
type moveArgs struct {
	noteID int64
	to     string
}

func main() {
	configPath := flag.String("config", os.Getenv("LUMI_CONFIG"), "path to a yaml config file")
	envFile := flag.String("env", ".env", "dotenv file, ignored when missing")
	mode := flag.String("mode", "", "override the configured mode (all, notes, folders, gateway, export, tree, move)")
	noteID := flag.Int64("note", 0, "move mode: id of the note to move")
	to := flag.String("to", "", `move mode: "unfiled" or "folder-<id>"`)
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err == nil && *mode != "" {
		cfg.Mode = *mode
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, cfg.IsProduction(), os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, moveArgs{noteID: *noteID, to: *to}, log); err != nil {
		log.Fatal().Err(err).Str("mode", cfg.Mode).Msg("exiting")
	}
}

func run(ctx context.Context, cfg *config.Config, move moveArgs, log zerolog.Logger) error {
	switch cfg.Mode {
	case config.ModeExport:
		return runExport(ctx, cfg, log)
	case config.ModeTree:
		return runTree(ctx, cfg, os.Stdout, log)
	case config.ModeMove:
		return runMove(ctx, cfg, move, log)
	case config.ModeGateway:
		return runGateway(ctx, cfg, log)
	default:
		return runServices(ctx, cfg, log)
	}
}

// runServices serves the notes and/or folders API from the database.
func runServices(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.Database.AutoMigrate {
		if err := store.Migrate(cfg.Database.URL, logger.Component(log, "migrate")); err != nil {
			return err
		}
	}

	st, err := store.Open(ctx, cfg.Database, logger.Component(log, "store"))
	if err != nil {
		return err
	}
	defer st.Close()

	hub := events.NewHub(logger.Component(log, "events"))
	go hub.Run(ctx)

	name := serviceName(cfg.Mode)
	app := httphandlers.NewApp(cfg.Server, logger.Component(log, "http"))
	srv := httphandlers.NewServer(name, st, hub, logger.Component(log, "http"))
	if err := mountServices(app, srv, cfg, log); err != nil {
		return err
	}

	return serve(ctx, app, cfg.Server.Port, log.With().Str("service", name).Logger())
}

func serviceName(mode string) string {
	switch mode {
	case config.ModeNotes:
		return "notes-service"
	case config.ModeFolders:
		return "folders-service"
	default:
		return "lumi-notes"
	}
}

// mountServices wires routes for the configured mode. Only /health is public
// in "all" mode; the API and the event stream sit under /api behind auth. The
// single-service modes serve unprefixed routes for the gateway to forward to.
func mountServices(app *fiber.App, srv *httphandlers.Server, cfg *config.Config, log zerolog.Logger) error {
	srv.RegisterHealth(app)

	switch cfg.Mode {
	case config.ModeNotes:
		srv.RegisterNotes(app)
		srv.RegisterEvents(app)
	case config.ModeFolders:
		srv.RegisterFolders(app)
		srv.RegisterEvents(app)
	default:
		api := app.Group("/api")
		if err := guard(api, cfg.Auth, log); err != nil {
			return err
		}
		srv.RegisterNotes(api)
		srv.RegisterFolders(api)
		srv.RegisterEvents(api)
	}
	return nil
}

func runGateway(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	app := httphandlers.NewApp(cfg.Server, logger.Component(log, "http"))
	if err := guard(app.Group("/api"), cfg.Auth, log); err != nil {
		return err
	}
	gateway.New(cfg.Gateway, logger.Component(log, "gateway")).Register(app)

	return serve(ctx, app, cfg.Server.Port, log.With().Str("service", "api-gateway").Logger())
}

// guard installs token auth on r unless it is disabled.
func guard(r fiber.Router, cfg config.AuthConfig, log zerolog.Logger) error {
	if cfg.Disabled {
		log.Warn().Msg("authentication disabled")
		return nil
	}
	v, err := auth.NewVerifier(cfg)
	if err != nil {
		return err
	}
	r.Use(auth.Middleware(v))
	return nil
}

func serve(ctx context.Context, app *fiber.App, port string, log zerolog.Logger) error {
	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", port).Msg("server starting")
	return app.Listen(":" + port)
}

// openWorkspace loads notes and folders through the API, with pins from the
// local store. The returned func closes the pin store.
func openWorkspace(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*workspace.Workspace, func(), error) {
	pinStore, err := pins.Open(cfg.Export.PinsDir, logger.Component(log, "pins"))
	if err != nil {
		return nil, nil, err
	}
	closePins := func() {
		if err := pinStore.Close(); err != nil {
			log.Error().Err(err).Msg("close pin store")
		}
	}

	api := client.New(cfg.Export.APIURL,
		client.WithToken(cfg.Export.Token),
		client.WithTimeout(cfg.Export.Timeout),
		client.WithLogger(logger.Component(log, "client")),
	)
	ws := workspace.New(api, pinStore, logger.Component(log, "workspace"))
	if r := ws.Load(ctx); !r.OK {
		closePins()
		return nil, nil, fmt.Errorf("%s: %w", r.Message, r.Err)
	}
	return ws, closePins, nil
}

// runExport writes the loaded notes as markdown, marking pinned notes.
func runExport(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	ws, closePins, err := openWorkspace(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closePins()

	state := ws.State()
	_, err = filesystem.NewExporter(cfg.Export.Dir, logger.Component(log, "export")).
		Export(state.Notes, state.Folders, state.Pinned)
	return err
}

// runTree prints the fully expanded folder tree.
func runTree(ctx context.Context, cfg *config.Config, out io.Writer, log zerolog.Logger) error {
	ws, closePins, err := openWorkspace(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closePins()

	ws.ExpandAll()
	return printTree(out, ws.Render())
}

// runMove moves one note to a drop target such as "unfiled" or "folder-3".
func runMove(ctx context.Context, cfg *config.Config, args moveArgs, log zerolog.Logger) error {
	target, err := workspace.ParseTarget(args.to)
	if err != nil {
		return err
	}
	ws, closePins, err := openWorkspace(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closePins()

	r := ws.Move(ctx, args.noteID, target)
	if !r.OK {
		return fmt.Errorf("%s: %w", r.Message, r.Err)
	}
	if !r.Changed {
		log.Info().Int64("note_id", args.noteID).Str("target", target.String()).Msg("note already there")
		return nil
	}
	log.Info().Int64("note_id", args.noteID).Msg(r.Message)
	return nil
}

// printTree writes one line per row, indented by depth.
func printTree(w io.Writer, rows []workspace.Row) error {
	for _, row := range rows {
		indent := strings.Repeat("  ", row.Depth)
		var line string
		switch row.Kind {
		case workspace.RowFolder:
			line = fmt.Sprintf("%s%s %s (%d)", indent, marker(row.Expanded), row.Folder.Name, row.Count)
		case workspace.RowUnfiled:
			line = fmt.Sprintf("%s%s Unfiled (%d)", indent, marker(row.Expanded), row.Count)
		case workspace.RowNote:
			pin := ""
			if row.Pinned {
				pin = " *"
			}
			line = fmt.Sprintf("%s- %s [%d]%s", indent, row.Note.Title, row.Note.ID, pin)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func marker(expanded bool) string {
	if expanded {
		return "v"
	}
	return ">"
}
