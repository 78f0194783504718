// Package httpapi serves a read-only spectator API over the registry.
package httpapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/amalg/gridarena/internal/battlemap"
	"github.com/amalg/gridarena/internal/game"
	"github.com/amalg/gridarena/internal/session"
)

// keepAlive is how often an idle event stream gets a comment line.
const keepAlive = 15 * time.Second

// API exposes match listings, snapshots and a live event stream.
type API struct {
	app      *fiber.App
	registry *session.Registry
	maps     *battlemap.Renderer
	hub      *hub
}

// MatchView is a snapshot together with its rendered map address.
type MatchView struct {
	Snapshot game.Snapshot `json:"snapshot"`
	MapURL   string        `json:"map_url"`
}

// New builds the API and subscribes it to registry changes.
func New(reg *session.Registry, maps *battlemap.Renderer, allowOrigins string) *API {
	a := &API{
		app: fiber.New(fiber.Config{
			AppName:               "gridarena",
			DisableStartupMessage: true,
		}),
		registry: reg,
		maps:     maps,
		hub:      newHub(),
	}
	if allowOrigins == "" {
		allowOrigins = "*"
	}

	a.app.Use(recover.New())
	a.app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: "GET,HEAD,OPTIONS",
	}))

	a.app.Get("/healthz", a.health)
	a.app.Get("/rules", a.rules)
	a.app.Get("/matches", a.listMatches)
	a.app.Get("/matches/:guild/:channel", a.getMatch)
	a.app.Get("/matches/:guild/:channel/events", a.streamMatch)

	reg.OnChange(a.hub.publish)
	return a
}

// App returns the fiber app, mainly for tests.
func (a *API) App() *fiber.App {
	return a.app
}

// Listen serves on addr until Shutdown.
func (a *API) Listen(addr string) error {
	log.Printf("[HTTP] Listening on %s", addr)
	return a.app.Listen(addr)
}

// Shutdown stops the server and closes every event stream.
func (a *API) Shutdown() error {
	a.hub.close()
	return a.app.Shutdown()
}

func (a *API) health(c *fiber.Ctx) error {
	forming, active := a.registry.Counts()
	return c.JSON(fiber.Map{"status": "ok", "forming": forming, "active": active})
}

func (a *API) rules(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"config":  a.registry.Config(),
		"weapons": game.Catalog,
	})
}

func (a *API) listMatches(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"matches": a.registry.List()})
}

func (a *API) getMatch(c *fiber.Ctx) error {
	key := session.Key{Guild: c.Params("guild"), Channel: c.Params("channel")}
	snap, err := a.registry.Snapshot(key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(a.view(snap))
}

// streamMatch pushes a "state" event for every change to the match, starting
// with the current state when there is one.
func (a *API) streamMatch(c *fiber.Ctx) error {
	key := session.Key{Guild: c.Params("guild"), Channel: c.Params("channel")}
	first, err := a.registry.Snapshot(key)
	if err != nil {
		return writeError(c, err)
	}

	updates, cancel := a.hub.subscribe(key)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		if err := a.writeEvent(w, first); err != nil {
			return
		}
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				if err := a.writeEvent(w, snap); err != nil {
					return
				}
			case <-ticker.C:
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

func (a *API) writeEvent(w *bufio.Writer, snap game.Snapshot) error {
	payload, err := json.Marshal(a.view(snap))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "event: state\ndata: %s\n\n", payload)
	return w.Flush()
}

func (a *API) view(snap game.Snapshot) MatchView {
	v := MatchView{Snapshot: snap}
	if a.maps != nil {
		v.MapURL = a.maps.URL(snap)
	}
	return v
}

func writeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if game.IsCode(err, game.CodeNoMatchInChannel) {
		status = fiber.StatusNotFound
	}
	return c.Status(status).JSON(fiber.Map{
		"error":    game.GetCode(err),
		"metadata": game.GetMetadata(err),
	})
}
