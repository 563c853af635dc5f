package http

import (
	"context"
	stderrors "errors"

	"catsvg-indexer/internal/indexer/domain/model"
	"catsvg-indexer/internal/indexer/domain/repository"
	"catsvg-indexer/internal/shared/errors"
	"catsvg-indexer/internal/shared/eventbus"
	"catsvg-indexer/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// Generator is the generative-model port consumed by POST /generate-svg.
type Generator interface {
	Generate(ctx context.Context, theme string) (string, error)
}

// ReconcilePass runs one synchronous reconciliation, used by GET /fetch-svgs.
type ReconcilePass interface {
	ReconcileOnce(ctx context.Context) error
}

// Handler exposes the indexer's HTTP API. All routes are unauthenticated.
type Handler struct {
	Tokens     repository.TokenRepository
	CatTexts   repository.CatTextRepository
	Generator  Generator
	Reconciler ReconcilePass
	Bus        *eventbus.EventBus
	Log        logger.Logger
}

// NewHandler creates the API handler.
func NewHandler(
	tokens repository.TokenRepository,
	catTexts repository.CatTextRepository,
	generator Generator,
	reconciler ReconcilePass,
	bus *eventbus.EventBus,
	log logger.Logger,
) *Handler {
	return &Handler{
		Tokens:     tokens,
		CatTexts:   catTexts,
		Generator:  generator,
		Reconciler: reconciler,
		Bus:        bus,
		Log:        log.WithComponent("http_handler"),
	}
}

// RegisterRoutes mounts the API surface on the app.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/generate-svg", h.GenerateSVG)
	app.Post("/publish-svg", h.PublishSVG)
	app.Get("/get-svgs", h.GetSVGs)
	app.Get("/fetch-svgs", h.FetchSVGs)
	app.Get("/get-cat-text/:tokenId", h.GetCatText)
}

type generateSVGRequest struct {
	Theme string `json:"theme"`
}

type publishSVGRequest struct {
	SVG string `json:"svg"`
}

// GenerateSVG handles POST /generate-svg.
func (h *Handler) GenerateSVG(c *fiber.Ctx) error {
	var req generateSVGRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	svg, err := h.Generator.Generate(c.Context(), req.Theme)
	if err != nil {
		return h.errorResponse(c, err, "Failed to generate SVG")
	}

	return c.JSON(fiber.Map{"svg": svg})
}

// PublishSVG handles POST /publish-svg.
func (h *Handler) PublishSVG(c *fiber.Ctx) error {
	var req publishSVGRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.SVG == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "svg is required",
		})
	}

	rec := model.NewPublishedSVG(req.SVG)
	if _, err := h.Tokens.Insert(c.Context(), rec); err != nil {
		return h.errorResponse(c, err, "Failed to store published SVG")
	}

	if h.Bus != nil {
		// Fiber recycles the request context after the handler returns, so
		// the asynchronous publish must not hold on to it.
		h.Bus.PublishAndForget(context.Background(), eventbus.NewBasicEventWithSource(
			eventbus.EventTypeSVGPublished, rec, "http_handler"))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"id":      rec.PublishID,
	})
}

// GetSVGs handles GET /get-svgs. Returns every stored record, reconciled and
// published, unfiltered and unpaginated.
func (h *Handler) GetSVGs(c *fiber.Ctx) error {
	records, err := h.Tokens.ListAll(c.Context())
	if err != nil {
		return h.errorResponse(c, err, "Failed to list SVGs")
	}
	if records == nil {
		// An empty result is an empty array on the wire, never null.
		records = []model.TokenRecord{}
	}
	return c.JSON(records)
}

// FetchSVGs handles GET /fetch-svgs: one reconciler pass, synchronous with
// the response. A failed dial fails the pass as a whole here, unlike the
// background tick which just skips.
func (h *Handler) FetchSVGs(c *fiber.Ctx) error {
	if err := h.Reconciler.ReconcileOnce(c.Context()); err != nil {
		return h.errorResponse(c, err, "Reconciliation pass failed")
	}
	return c.JSON(fiber.Map{"message": "SVG reconciliation pass completed"})
}

// GetCatText handles GET /get-cat-text/:tokenId. An absent record yields
// JSON null, not an error.
func (h *Handler) GetCatText(c *fiber.Ctx) error {
	tokenID := c.Params("tokenId")

	text, found, err := h.CatTexts.GetText(c.Context(), tokenID)
	if err != nil {
		return h.errorResponse(c, err, "Failed to read cat text")
	}
	if !found {
		return c.JSON(nil)
	}
	return c.JSON(text)
}

// errorResponse logs the failure and maps it onto an HTTP status. AppErrors
// keep their own status; anything else is a 500.
func (h *Handler) errorResponse(c *fiber.Ctx, err error, msg string) error {
	h.Log.Errorf("%s: %v", msg, err)

	status := fiber.StatusInternalServerError
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.HTTPCode != 0 {
		status = appErr.HTTPCode
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
