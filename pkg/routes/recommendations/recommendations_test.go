package recommendations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/graph"
)

type fakeRecommender struct {
	err       error
	result    []string
	lastUser  string
	lastLimit int
}

func (r *fakeRecommender) Recommend(ctx context.Context, userID string, limit int) ([]string, error) {
	r.lastUser = userID
	r.lastLimit = limit
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func doGet(t *testing.T, recommender *fakeRecommender, userID, limitQuery string) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	target := "/api/v1/recommendations/" + userID
	if limitQuery != "" {
		target += "?limit=" + limitQuery
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/recommendations/:userId")
	c.SetParamNames("userId")
	c.SetParamValues(userID)

	h := NewHandler(recommender, 5, testLogger())
	return rec, h.Get(c)
}

func TestGet_ReturnsRankedProducts(t *testing.T) {
	recommender := &fakeRecommender{result: []string{"prod-2", "prod-7", "prod-3"}}

	rec, err := doGet(t, recommender, "buyer@example.com", "")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp GetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "buyer@example.com", resp.UserID)
	assert.Equal(t, []string{"prod-2", "prod-7", "prod-3"}, resp.ProductIDs)

	// Default limit applies when the query param is absent.
	assert.Equal(t, 5, recommender.lastLimit)
}

func TestGet_EmptyHistoryIsEmptyList(t *testing.T) {
	recommender := &fakeRecommender{result: []string{}}

	rec, err := doGet(t, recommender, "new-user@example.com", "")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"product_ids":[]`)
}

func TestGet_ExplicitLimit(t *testing.T) {
	recommender := &fakeRecommender{result: []string{"prod-1"}}

	rec, err := doGet(t, recommender, "buyer@example.com", "3")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, recommender.lastLimit)
}

func TestGet_RejectsBadLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit string
	}{
		{name: "non-integer", limit: "abc"},
		{name: "zero", limit: "0"},
		{name: "negative", limit: "-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recommender := &fakeRecommender{}

			_, err := doGet(t, recommender, "buyer@example.com", tt.limit)

			require.Error(t, err)
			assert.True(t, httperror.IsHTTPError(err))
			assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
		})
	}
}

func TestGet_ValidationErrorIs400(t *testing.T) {
	recommender := &fakeRecommender{err: &graph.ValidationError{Op: "recommend", Reason: "user id is required"}}

	_, err := doGet(t, recommender, "buyer@example.com", "")

	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestGet_QueryFailureIs503(t *testing.T) {
	recommender := &fakeRecommender{err: &graph.QueryError{Op: "recommend", Err: errors.New("traversal failed")}}

	_, err := doGet(t, recommender, "buyer@example.com", "")

	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusServiceUnavailable, httperror.GetStatusCode(err))
}

func TestGet_StoreUnavailableIs503(t *testing.T) {
	recommender := &fakeRecommender{err: &graph.ConnectionError{Op: "recommend", Err: errors.New("connection refused")}}

	_, err := doGet(t, recommender, "buyer@example.com", "")

	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusServiceUnavailable, httperror.GetStatusCode(err))
}

func TestGet_UnknownErrorPropagates(t *testing.T) {
	cause := errors.New("boom")
	recommender := &fakeRecommender{err: cause}

	_, err := doGet(t, recommender, "buyer@example.com", "")

	assert.ErrorIs(t, err, cause)
}
