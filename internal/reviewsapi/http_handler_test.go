package reviewsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewgateway/internal/queue"
	"reviewgateway/internal/reviews"
	"reviewgateway/internal/store"
)

func newContext(e *echo.Echo, method, path string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestListApps(t *testing.T) {
	s := store.NewMemStore()
	require.NoError(t, s.CreateApp(context.Background(), reviews.App{ID: 1}))
	h := NewHTTPHandler(s, queue.New())

	e := echo.New()
	c, rec := newContext(e, http.MethodGet, "/apps")

	require.NoError(t, h.ListApps(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp appsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, reviews.AppID(1), resp.Items[0].ID)
}

func TestGetReviews_KnownApp_ReturnsCacheImmediately(t *testing.T) {
	s := store.NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.CreateApp(ctx, reviews.App{ID: 1}))
	require.NoError(t, s.CreateReviews(ctx, []reviews.Review{
		{ID: reviews.NewReviewID(1, "a"), AppID: 1, Title: "nice", Updated: time.Now()},
	}))

	q := queue.New()
	h := NewHTTPHandler(s, q)
	e := echo.New()
	c, rec := newContext(e, http.MethodGet, "/reviews/1")
	c.SetParamNames("app_id")
	c.SetParamValues("1")

	require.NoError(t, h.GetReviews(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp reviewsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)

	// The fast path must still have pushed a background refresh task.
	_, err := q.Pop(context.Background())
	require.NoError(t, err)
}

func TestGetReviews_UnknownApp_BlocksUntilWorkerCompletes(t *testing.T) {
	s := store.NewMemStore()
	q := queue.New()
	h := NewHTTPHandler(s, q)
	e := echo.New()

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		c, rec := newContext(e, http.MethodGet, "/reviews/99")
		c.SetParamNames("app_id")
		c.SetParamValues("99")
		_ = h.GetReviews(c)
		done <- rec
	}()

	tsk, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reviews.AppID(99), tsk.AppID())

	require.NoError(t, s.CreateReviews(context.Background(), []reviews.Review{
		{ID: reviews.NewReviewID(99, "a"), AppID: 99, Title: "first ever", Updated: time.Now()},
	}))
	q.MarkComplete(tsk)

	select {
	case rec := <-done:
		assert.Equal(t, http.StatusOK, rec.Code)
		var resp reviewsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Items, 1)
	case <-time.After(time.Second):
		require.Fail(t, "request did not unblock after task completed")
	}
}

func TestGetReviews_InvalidAppID(t *testing.T) {
	h := NewHTTPHandler(store.NewMemStore(), queue.New())
	e := echo.New()
	c, rec := newContext(e, http.MethodGet, "/reviews/not-a-number")
	c.SetParamNames("app_id")
	c.SetParamValues("not-a-number")

	require.NoError(t, h.GetReviews(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReviews_UpdatedMinFilters(t *testing.T) {
	s := store.NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.CreateApp(ctx, reviews.App{ID: 1}))
	now := time.Now()
	require.NoError(t, s.CreateReviews(ctx, []reviews.Review{
		{ID: reviews.NewReviewID(1, "old"), AppID: 1, Updated: now.Add(-time.Hour)},
		{ID: reviews.NewReviewID(1, "new"), AppID: 1, Updated: now},
	}))

	h := NewHTTPHandler(s, queue.New())
	e := echo.New()
	c, rec := newContext(e, http.MethodGet, "/reviews/1?updated_min="+now.Add(-time.Minute).Format(time.RFC3339))
	c.SetParamNames("app_id")
	c.SetParamValues("1")

	require.NoError(t, h.GetReviews(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp reviewsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, reviews.NewReviewID(1, "new"), resp.Items[0].ID)
}

func TestHealth(t *testing.T) {
	h := NewHTTPHandler(store.NewMemStore(), queue.New())
	e := echo.New()
	c, rec := newContext(e, http.MethodGet, "/health")

	require.NoError(t, h.Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}
