package recommendations

import (
	"context"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/graph"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/tracing"
)

// Recommender answers recommendation queries over the purchase graph
type Recommender interface {
	Recommend(ctx context.Context, userID string, limit int) ([]string, error)
}

// Handler handles recommendation API endpoints
type Handler struct {
	recommender  Recommender
	defaultLimit int
	logger       ectologger.Logger
}

// NewHandler creates a new recommendations handler
func NewHandler(recommender Recommender, defaultLimit int, logger ectologger.Logger) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = 5
	}
	return &Handler{
		recommender:  recommender,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// Register registers the recommendation routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/:userId", h.Get)
}

// GetResponse carries the ordered product ids for one user. The caller
// resolves ids to display data separately.
type GetResponse struct {
	UserID     string   `json:"user_id"`
	ProductIDs []string `json:"product_ids"`
}

// Get returns ranked product recommendations for a user
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "recommendations_handler.Get")
	defer span.End()

	userID := c.Param("userId")
	if userID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "user id is required")
	}

	limit := h.defaultLimit
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		var parsed int
		if err := echo.QueryParamsBinder(c).Int("limit", &parsed).BindError(); err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		if parsed <= 0 {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be positive")
		}
		limit = parsed
	}

	productIDs, err := h.recommender.Recommend(ctx, userID, limit)
	if err != nil {
		var valErr *graph.ValidationError
		if errors.As(err, &valErr) {
			return httperror.NewHTTPError(http.StatusBadRequest, valErr.Reason)
		}

		var queryErr *graph.QueryError
		if errors.As(err, &queryErr) {
			return httperror.NewHTTPError(http.StatusServiceUnavailable, "recommendation query failed")
		}

		var connErr *graph.ConnectionError
		if errors.As(err, &connErr) {
			return httperror.NewHTTPError(http.StatusServiceUnavailable, "graph store unavailable")
		}

		return err
	}

	return c.JSON(http.StatusOK, GetResponse{
		UserID:     userID,
		ProductIDs: productIDs,
	})
}
