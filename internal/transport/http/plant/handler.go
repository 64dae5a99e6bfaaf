package plant

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/nursery/internal/dto"
	"github.com/Additional-Code/nursery/internal/presentation/http/response"
	service "github.com/Additional-Code/nursery/internal/service/plant"
	"github.com/Additional-Code/nursery/internal/transport/http/router"
	"github.com/Additional-Code/nursery/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/nursery/transport/http/plant")

// Handler exposes the plant catalog over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a plant Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the private API group.
func Register(groups *router.Groups, h *Handler) {
	g := groups.Private.Group("/plants")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "plants.list")
	defer span.End()

	plants, err := h.svc.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewPlantResponses(plants)).WithMeta("count", len(plants)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "plants.getByID", trace.WithAttributes(attribute.Int64("plant.id", id)))
	defer span.End()

	plant, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewPlantResponse(plant)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.PlantRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "plants.create")
	defer span.End()

	plant, err := h.svc.Create(ctx, toInput(payload))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.NewPlantResponse(plant)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	var payload dto.PlantRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "plants.update", trace.WithAttributes(attribute.Int64("plant.id", id)))
	defer span.End()

	plant, err := h.svc.Update(ctx, id, toInput(payload))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewPlantResponse(plant)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "plants.delete", trace.WithAttributes(attribute.Int64("plant.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]any{"id": id, "deleted": true}).Build()
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithCause(err))
	}
	return id, nil
}

func toInput(p dto.PlantRequest) service.Input {
	return service.Input{
		Name:          p.Name,
		BotanicalName: p.BotanicalName,
		Description:   p.Description,
		Price:         p.Price,
		Stock:         p.Stock,
		Size:          p.Size,
		Light:         p.Light,
		Water:         p.Water,
		Category:      p.Category,
		ImageURL:      p.ImageURL,
		Status:        p.Status,
	}
}
