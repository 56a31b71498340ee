package dispatch

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docket/internal/logger"
)

func newTestRouterWithHandler(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(svc, logger.NopLogger()).RegisterRoutes(router)
	return router
}

func postEvent(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleEventOK(t *testing.T) {
	store := &memStore{}
	router := newTestRouterWithHandler(newTestService(store, nil))

	rec := postEvent(t, router, `{
		"table": "tasks",
		"eventType": "INSERT",
		"record": {"id": "t1", "title": "File motion", "assigned_to": "U1"}
	}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var result Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, 1, result.RecipientCount)
	assert.Equal(t, "direct", result.Method)
	assert.Len(t, store.inserted, 1)
}

func TestHandleEventSkippedDuplicate(t *testing.T) {
	router := newTestRouterWithHandler(newTestService(&memStore{}, nil))

	body := `{
		"table": "documents",
		"eventType": "INSERT",
		"record": {"id": "d1", "uploaded_by": "U1"}
	}`

	first := postEvent(t, router, body)
	require.Equal(t, http.StatusOK, first.Code)

	second := postEvent(t, router, body)
	require.Equal(t, http.StatusOK, second.Code)

	var result Result
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &result))
	assert.Equal(t, StatusSkipped, result.Status)
	assert.Equal(t, ReasonDuplicate, result.Reason)
}

func TestHandleEventMalformedJSON(t *testing.T) {
	router := newTestRouterWithHandler(newTestService(&memStore{}, nil))

	rec := postEvent(t, router, `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Contains(t, response, "error")
}

func TestHandleEventValidationFailure(t *testing.T) {
	router := newTestRouterWithHandler(newTestService(&memStore{}, nil))

	rec := postEvent(t, router, `{
		"table": "tasks",
		"eventType": "UPSERT",
		"record": {"id": "t1"}
	}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
