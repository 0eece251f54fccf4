// Package reviewsapi is the thin HTTP surface over the cache (spec §1,
// §4.5, §6): handlers call straight through to Store and Queue, never
// holding domain logic of their own.
package reviewsapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"reviewgateway/internal/queue"
	"reviewgateway/internal/reviews"
	"reviewgateway/internal/store"
)

// HTTPHandler handles app and review HTTP requests.
type HTTPHandler struct {
	store store.Store
	queue *queue.Queue
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(s store.Store, q *queue.Queue) *HTTPHandler {
	return &HTTPHandler{store: s, queue: q}
}

// Register adds the endpoints to the provided Echo router group.
func (h *HTTPHandler) Register(g *echo.Group) {
	g.GET("/apps", h.ListApps)
	g.GET("/reviews/:app_id", h.GetReviews)
	g.GET("/health", h.Health)
}

// appsResponse and reviewsResponse both use the {"items": [...]} envelope
// spec §6 specifies for list endpoints.
type appsResponse struct {
	Items []reviews.App `json:"items"`
}

type reviewsResponse struct {
	Items []reviews.Review `json:"items"`
}

// ListApps handles GET /apps.
func (h *HTTPHandler) ListApps(c echo.Context) error {
	apps, err := h.store.GetAppList(c.Request().Context())
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, appsResponse{Items: apps})
}

// GetReviews handles GET /reviews/:app_id. Per spec §4.5: known apps are
// served from cache immediately while a refresh is pushed in the
// background; unknown apps block on their first-ever poll.
func (h *HTTPHandler) GetReviews(c echo.Context) error {
	appID, err := reviews.ParseAppID(c.Param("app_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse("invalid app_id"))
	}

	updatedMin, err := parseUpdatedMin(c.QueryParam("updated_min"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse("invalid updated_min"))
	}

	ctx := c.Request().Context()
	_, known, err := h.store.GetApp(ctx, appID)
	if err != nil {
		return jsonError(c, err)
	}

	if known {
		h.queue.Push(appID, false)
	} else {
		t := h.queue.Push(appID, false)
		if err := t.AwaitCompletion(ctx); err != nil {
			return jsonError(c, err)
		}
		if _, found, err := h.store.GetApp(ctx, appID); err != nil {
			return jsonError(c, err)
		} else if !found {
			if err := h.store.CreateApp(ctx, reviews.App{ID: appID}); err != nil {
				return jsonError(c, err)
			}
		}
	}

	list, err := h.store.GetReviewList(ctx, appID, updatedMin)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, reviewsResponse{Items: list})
}

// Health handles GET /health, an empty-bodied liveness probe.
func (h *HTTPHandler) Health(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func parseUpdatedMin(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
