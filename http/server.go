// http/server.go

// Package http serves the notes and folders REST services over fiber.
package http

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vinizap/lumi-notes/apperr"
	"github.com/vinizap/lumi-notes/config"
	"github.com/vinizap/lumi-notes/domain"
	"github.com/vinizap/lumi-notes/events"
	"github.com/vinizap/lumi-notes/validation"
)

const Version = "1.0.0"

// Store is the persistence the handlers need.
type Store interface {
	Ping(ctx context.Context) error

	ListNotes(ctx context.Context, folderID *int64) ([]domain.Note, error)
	GetNote(ctx context.Context, id int64) (domain.Note, error)
	CreateNote(ctx context.Context, in domain.NoteInput) (domain.Note, error)
	UpdateNote(ctx context.Context, id int64, in domain.NoteInput) (domain.Note, error)
	DeleteNote(ctx context.Context, id int64) error

	ListFolders(ctx context.Context, parentID *int64) ([]domain.Folder, error)
	ListChildren(ctx context.Context, id int64) ([]domain.Folder, error)
	GetFolder(ctx context.Context, id int64) (domain.Folder, error)
	CreateFolder(ctx context.Context, in domain.FolderInput) (domain.Folder, error)
	UpdateFolder(ctx context.Context, id int64, in domain.FolderInput) (domain.Folder, error)
	DeleteFolder(ctx context.Context, id int64) error
}

type Server struct {
	name     string
	store    Store
	hub      *events.Hub
	validate *validation.Validator
	log      zerolog.Logger
}

// NewServer creates the handlers. hub may be nil, in which case no change
// events are published and /events is not served.
func NewServer(name string, store Store, hub *events.Hub, log zerolog.Logger) *Server {
	return &Server{
		name:     name,
		store:    store,
		hub:      hub,
		validate: validation.New(),
		log:      log,
	}
}

// NewApp returns a fiber app with the shared middleware stack.
func NewApp(cfg config.ServerConfig, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "lumi-notes",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		BodyLimit:             cfg.BodyLimit,
		ErrorHandler:          ErrorHandler(log),
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(RequestLogger(log))
	app.Use(cors.New())
	return app
}

func (s *Server) RegisterNotes(r fiber.Router) {
	r.Get("/notes", s.HandleListNotes)
	r.Post("/notes", s.HandleCreateNote)
	r.Get("/notes/:id", s.HandleGetNote)
	r.Put("/notes/:id", s.HandleUpdateNote)
	r.Delete("/notes/:id", s.HandleDeleteNote)
}

func (s *Server) RegisterFolders(r fiber.Router) {
	r.Get("/folders", s.HandleListFolders)
	r.Post("/folders", s.HandleCreateFolder)
	r.Get("/folders/:id", s.HandleGetFolder)
	r.Put("/folders/:id", s.HandleUpdateFolder)
	r.Delete("/folders/:id", s.HandleDeleteFolder)
	r.Get("/folders/:id/children", s.HandleFolderChildren)
}

// RegisterHealth mounts the unauthenticated /health probe.
func (s *Server) RegisterHealth(r fiber.Router) {
	r.Get("/health", s.HandleHealth)
}

// RegisterEvents mounts /events when a hub is configured. Events carry note
// bodies, so r must be the authenticated router.
func (s *Server) RegisterEvents(r fiber.Router) {
	if s.hub != nil {
		r.Get("/events", s.HandleEvents)
	}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Database  string    `json:"database,omitempty"`
}

func (s *Server) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn().Err(err).Msg("health check failed")
		return apperr.Wrap(err, apperr.CodeUnavailable, "Service unhealthy")
	}
	return c.JSON(healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   s.name,
		Version:   Version,
		Database:  "connected",
	})
}

func (s *Server) decode(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return apperr.Validation("Request body required")
	}
	if err := c.App().Config().JSONDecoder(c.Body(), v); err != nil {
		return apperr.Validationf("Invalid JSON body: %v", err)
	}
	return s.validate.Validate(v)
}

func pathID(c *fiber.Ctx, what string) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validationf("Invalid %s id", what)
	}
	return id, nil
}

// queryID parses an optional positive integer query parameter.
func queryID(c *fiber.Ctx, key string) (*int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperr.Validationf("Invalid %s", key)
	}
	return &id, nil
}
