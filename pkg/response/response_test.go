package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/martial-arts-tracker/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestOKKeepsNullData(t *testing.T) {
	c, w := newContext()
	OK(c, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":null}`, w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestErrorUsesTypedStatus(t *testing.T) {
	c, w := newContext()
	Error(c, appErrors.Storage(errors.New("disk full"), "write failed"))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "STORAGE_UNAVAILABLE", body.Error.Code)
	assert.True(t, body.Error.Retryable)
}

func TestErrorDefaultsToInternal(t *testing.T) {
	c, w := newContext()
	Error(c, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestFileSetsDisposition(t *testing.T) {
	c, w := newContext()
	File(c, "coach-pack-2024-03-01.csv", "text/csv", []byte("a\n"))

	assert.Equal(t, `attachment; filename="coach-pack-2024-03-01.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "a\n", w.Body.String())
}
