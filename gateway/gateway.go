// gateway/gateway.go

// Package gateway forwards /api requests to the notes and folders services by
// path prefix and reports their aggregated health.
package gateway

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/vinizap/lumi-notes/apperr"
	"github.com/vinizap/lumi-notes/config"
)

const (
	ServiceNotes   = "notes"
	ServiceFolders = "folders"

	healthCheckTimeout = 5 * time.Second
)

type Gateway struct {
	urls    map[string]string
	names   []string
	timeout time.Duration
	health  *expirable.LRU[string, bool]
	log     zerolog.Logger
}

// New creates a gateway. A zero HealthTTL disables health caching.
func New(cfg config.GatewayConfig, log zerolog.Logger) *Gateway {
	g := &Gateway{
		urls: map[string]string{
			ServiceNotes:   strings.TrimRight(cfg.NotesURL, "/"),
			ServiceFolders: strings.TrimRight(cfg.FoldersURL, "/"),
		},
		names:   []string{ServiceNotes, ServiceFolders},
		timeout: cfg.Timeout,
		log:     log,
	}
	if cfg.HealthTTL > 0 {
		g.health = expirable.NewLRU[string, bool](len(g.names), nil, cfg.HealthTTL)
	}
	return g
}

// Register mounts the gateway routes. Routes under /api are forwarded; mount
// any auth middleware on /api before calling Register.
func (g *Gateway) Register(r fiber.Router) {
	r.Get("/health", g.HandleHealth)
	r.Get("/api/services", g.HandleServices)

	for _, name := range g.names {
		h := g.forward(name)
		r.All("/api/"+name, h)
		r.All("/api/"+name+"/*", h)
	}
}

// forward proxies the request to the named service, stripping the /api
// prefix and keeping the query string.
func (g *Gateway) forward(name string) fiber.Handler {
	base := g.urls[name]
	return func(c *fiber.Ctx) error {
		target := base + strings.TrimPrefix(c.Path(), "/api")
		if q := c.Request().URI().QueryString(); len(q) > 0 {
			target += "?" + string(q)
		}

		if err := proxy.DoTimeout(c, target, g.timeout); err != nil {
			if errors.Is(err, fasthttp.ErrTimeout) {
				g.log.Error().Str("service", name).Msg("upstream timeout")
				return apperr.Timeout(fmt.Sprintf("Service %s timeout", name))
			}
			g.log.Error().Err(err).Str("service", name).Msg("upstream unavailable")
			return apperr.Unavailable(fmt.Sprintf("Service %s unavailable", name))
		}
		c.Response().Header.Del(fiber.HeaderServer)
		return nil
	}
}

// healthy reports whether the service answers 200 on /health. Results are
// cached for the configured TTL.
func (g *Gateway) healthy(name string) bool {
	if g.health != nil {
		if ok, cached := g.health.Get(name); cached {
			return ok
		}
	}

	agent := fiber.Get(g.urls[name] + "/health").Timeout(healthCheckTimeout)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		g.log.Error().Err(err).Str("service", name).Msg("health check failed")
		return false
	}
	code, _, errs := agent.Bytes()
	ok := len(errs) == 0 && code == fiber.StatusOK
	if len(errs) > 0 {
		g.log.Error().Errs("errors", errs).Str("service", name).Msg("health check failed")
	}

	if g.health != nil {
		g.health.Add(name, ok)
	}
	return ok
}

type serviceHealth struct {
	Status string `json:"status"`
	URL    string `json:"url"`
}

type healthResponse struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Service   string                   `json:"service"`
	Version   string                   `json:"version"`
	Services  map[string]serviceHealth `json:"services"`
}

// HandleHealth is 200 in both states; "degraded" means a downstream service
// failed its check.
func (g *Gateway) HandleHealth(c *fiber.Ctx) error {
	resp := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   "api-gateway",
		Version:   "1.0.0",
		Services:  make(map[string]serviceHealth, len(g.names)),
	}
	for _, name := range g.names {
		status := "healthy"
		if !g.healthy(name) {
			status = "unhealthy"
			resp.Status = "degraded"
		}
		resp.Services[name] = serviceHealth{Status: status, URL: g.urls[name]}
	}
	return c.JSON(resp)
}

type serviceInfo struct {
	URL    string `json:"url"`
	Health bool   `json:"health"`
}

func (g *Gateway) HandleServices(c *fiber.Ctx) error {
	services := make(map[string]serviceInfo, len(g.names))
	for _, name := range g.names {
		services[name] = serviceInfo{URL: g.urls[name], Health: g.healthy(name)}
	}
	return c.JSON(fiber.Map{"services": services})
}
