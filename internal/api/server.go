// Package api serves the care log over HTTP as JSON. Writes go through a
// store.Publisher so clients can long-poll for the next snapshot.
package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lhuanyu/Sumeru/internal/aggregate"
	"github.com/lhuanyu/Sumeru/internal/model"
	"github.com/lhuanyu/Sumeru/internal/service"
	"github.com/lhuanyu/Sumeru/internal/store"
)

const (
	defaultListLimit = 50
	maxWatchWait     = 10 * time.Second
)

type Config struct {
	Addr      string
	Location  *time.Location
	ChartDays int
}

type Server struct {
	app *fiber.App
	pub *store.Publisher
	cfg Config
	log zerolog.Logger
	now func() time.Time
}

func NewServer(cfg Config, pub *store.Publisher, log zerolog.Logger) *Server {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.ChartDays <= 0 {
		cfg.ChartDays = aggregate.DefaultChartDays
	}
	srv := &Server{pub: pub, cfg: cfg, log: log.With().Str("component", "api").Logger(), now: time.Now}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          maxWatchWait + 5*time.Second,
		ErrorHandler:          srv.handleError,
	})
	app.Use(recover.New())
	app.Use(srv.requestLogger)
	app.Use(cors.New())

	srv.app = app
	srv.registerRoutes()
	return srv
}

// Run listens until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.app.Shutdown()
	}()

	s.log.Info().Str("addr", s.cfg.Addr).Msg("listening")
	return s.app.Listen(s.cfg.Addr)
}

func (s *Server) registerRoutes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": s.pub.Version()})
	})

	api := s.app.Group("/api/v1")
	api.Get("/events", s.handleListEvents)
	api.Post("/events", s.handleCreateEvent)
	api.Post("/events/delete", s.handleDeleteEvents)
	api.Get("/events/:id", s.handleGetEvent)
	api.Put("/events/:id", s.handleUpdateEvent)
	api.Delete("/events/:id", s.handleDeleteEvent)
	api.Get("/days", s.handleListDays)
	api.Get("/days/:date", s.handleGetDay)
	api.Get("/charts/feeding", s.handleFeedingChart)
	api.Get("/watch", s.handleWatch)
	api.Get("/export", s.handleExport)
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		status = statusFor(err)
	}
	s.log.Info().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Msg("request")
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrInvalidDetailCombination),
		errors.Is(err, model.ErrUnknownVariant),
		errors.Is(err, model.ErrNegativeAmount),
		errors.Is(err, model.ErrNegativeDuration),
		errors.Is(err, service.ErrInvalidInput):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func (s *Server) typeFilter(c *fiber.Ctx) (model.CareType, error) {
	raw := strings.TrimSpace(c.Query("type"))
	if raw == "" || strings.EqualFold(raw, "all") {
		return "", nil
	}
	return model.ParseCareType(raw)
}

func (s *Server) handleListEvents(c *fiber.Ctx) error {
	filter, err := s.typeFilter(c)
	if err != nil {
		return err
	}
	events, err := service.ListCareEvents(c.UserContext(), s.pub, service.CareFilter{Type: filter, Limit: c.QueryInt("limit", defaultListLimit)})
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	items := service.PayloadsFromEvents(events)
	return c.JSON(fiber.Map{"data": items, "meta": fiber.Map{"count": len(items)}})
}

func (s *Server) handleCreateEvent(c *fiber.Ctx) error {
	var payload service.EventPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	e, err := payload.Event()
	if err != nil {
		return err
	}
	if err := s.pub.Insert(c.UserContext(), &e); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": service.PayloadFromEvent(e)})
}

func (s *Server) handleGetEvent(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := service.ResolveEventID(ctx, s.pub, c.Params("id"))
	if err != nil {
		return err
	}
	e, err := s.pub.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": service.PayloadFromEvent(e)})
}

// eventPatch is the PUT body. Absent fields are left unchanged.
type eventPatch struct {
	Type            *string    `json:"type"`
	Timestamp       *time.Time `json:"timestamp"`
	EndedAt         *time.Time `json:"ended_at"`
	DurationSeconds *int64     `json:"duration_seconds"`
	Note            *string    `json:"note"`
	FeedType        *string    `json:"feed_type"`
	FeedMethod      *string    `json:"feed_method"`
	BreastMl        *int       `json:"breast_ml"`
	FormulaMl       *int       `json:"formula_ml"`
	SolidG          *int       `json:"solid_g"`
	FeedNote        *string    `json:"feed_note"`
	DiaperType      *string    `json:"diaper_type"`
	DiaperAmount    *string    `json:"diaper_amount"`
	Texture         *string    `json:"texture"`
	Color           *string    `json:"color"`
}

func (p eventPatch) toService() service.CareEventPatch {
	out := service.CareEventPatch{
		Type:         p.Type,
		Timestamp:    p.Timestamp,
		EndedAt:      p.EndedAt,
		Note:         p.Note,
		FeedType:     p.FeedType,
		FeedMethod:   p.FeedMethod,
		BreastMl:     p.BreastMl,
		FormulaMl:    p.FormulaMl,
		SolidG:       p.SolidG,
		FeedNote:     p.FeedNote,
		DiaperType:   p.DiaperType,
		DiaperAmount: p.DiaperAmount,
		Texture:      p.Texture,
		Color:        p.Color,
	}
	if p.DurationSeconds != nil {
		d := time.Duration(*p.DurationSeconds) * time.Second
		out.Duration = &d
	}
	return out
}

func (s *Server) handleUpdateEvent(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var patch eventPatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	id, err := service.ResolveEventID(ctx, s.pub, c.Params("id"))
	if err != nil {
		return err
	}
	e, err := service.UpdateCareEvent(ctx, s.pub, id, patch.toService())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": service.PayloadFromEvent(e)})
}

func (s *Server) handleDeleteEvent(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := service.ResolveEventID(ctx, s.pub, c.Params("id"))
	if err != nil {
		return err
	}
	if err := s.pub.Delete(ctx, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleDeleteEvents(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	ids := make([]uuid.UUID, 0, len(body.IDs))
	for _, raw := range body.IDs {
		id, err := service.ResolveEventID(ctx, s.pub, raw)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if err := service.DeleteCareEvents(ctx, s.pub, ids); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"meta": fiber.Map{"deleted": len(ids)}})
}

func (s *Server) handleListDays(c *fiber.Ctx) error {
	filter, err := s.typeFilter(c)
	if err != nil {
		return err
	}
	days, err := service.ListDaySummaries(c.UserContext(), s.pub, filter, s.now(), s.cfg.Location)
	if err != nil {
		return fmt.Errorf("list days: %w", err)
	}
	return c.JSON(fiber.Map{"data": days, "meta": fiber.Map{"count": len(days), "version": s.pub.Version()}})
}

func (s *Server) handleGetDay(c *fiber.Ctx) error {
	date, err := time.ParseInLocation("2006-01-02", c.Params("date"), s.cfg.Location)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	day, err := service.DaySummaryFor(c.UserContext(), s.pub, date, s.now(), s.cfg.Location)
	if err != nil {
		return fmt.Errorf("day summary: %w", err)
	}
	return c.JSON(fiber.Map{"data": day})
}

func (s *Server) handleFeedingChart(c *fiber.Ctx) error {
	r, err := aggregate.ParseTimeRange(c.Query("range"), c.QueryInt("days", s.cfg.ChartDays))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	report, err := service.LoadFeedingChart(c.UserContext(), s.pub, r, s.now(), s.cfg.Location)
	if err != nil {
		return fmt.Errorf("feeding chart: %w", err)
	}
	return c.JSON(fiber.Map{"data": report})
}

// handleWatch returns the day summaries once the publisher version passes
// ?after, or 304 when wait elapses first.
func (s *Server) handleWatch(c *fiber.Ctx) error {
	after := c.QueryInt("after", 0)
	if after < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "after must be >= 0")
	}
	wait := time.Duration(c.QueryInt("wait", int(maxWatchWait/time.Second))) * time.Second
	if wait <= 0 || wait > maxWatchWait {
		wait = maxWatchWait
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), wait)
	defer cancel()

	for snap := range s.pub.Subscribe(ctx) {
		if snap.Version <= uint64(after) {
			continue
		}
		days := service.SummarizeDays(snap.Events, "", s.now(), s.cfg.Location)
		return c.JSON(fiber.Map{"data": days, "meta": fiber.Map{"count": len(days), "version": snap.Version}})
	}
	return c.SendStatus(fiber.StatusNotModified)
}

func (s *Server) handleExport(c *fiber.Ctx) error {
	data, err := service.ExportDataSnapshot(c.UserContext(), s.pub, s.now())
	if err != nil {
		return err
	}
	return c.JSON(data)
}
