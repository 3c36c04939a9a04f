package purchases

import (
	"context"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/graph"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/models"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/tracing"
)

// Recorder commits one purchase to the graph
type Recorder interface {
	Record(ctx context.Context, purchase *models.Purchase) error
}

// Handler handles purchase ingestion API endpoints
type Handler struct {
	recorder Recorder
	logger   ectologger.Logger
}

// NewHandler creates a new purchases handler
func NewHandler(recorder Recorder, logger ectologger.Logger) *Handler {
	return &Handler{
		recorder: recorder,
		logger:   logger,
	}
}

// Register registers the purchase routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Create)
}

// CreateResponse is returned after a purchase is recorded
type CreateResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// Create records a normalized purchase event in the graph. The caller (a
// checkout-completion collaborator) has already validated payment and
// authenticity.
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "purchases_handler.Create")
	defer span.End()

	var purchase models.Purchase
	if err := c.Bind(&purchase); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.recorder.Record(ctx, &purchase); err != nil {
		var valErr *graph.ValidationError
		if errors.As(err, &valErr) {
			return httperror.NewHTTPError(http.StatusBadRequest, valErr.Reason)
		}

		var dupErr *graph.DuplicateOrderError
		if errors.As(err, &dupErr) {
			// Idempotent retry by the caller; the purchase is already in.
			return c.JSON(http.StatusConflict, CreateResponse{
				OrderID: dupErr.OrderID,
				Status:  "already_recorded",
			})
		}

		var connErr *graph.ConnectionError
		if errors.As(err, &connErr) {
			return httperror.NewHTTPError(http.StatusServiceUnavailable, "graph store unavailable")
		}

		return err
	}

	return c.JSON(http.StatusCreated, CreateResponse{
		OrderID: purchase.OrderID,
		Status:  "recorded",
	})
}
