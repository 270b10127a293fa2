package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"univer-backend/services/univer"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealthz(t *testing.T) {
	handler := NewHandler(nil, nil, Options{})
	router := handler.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingCredentialsRejected(t *testing.T) {
	handler := NewHandler(nil, nil, Options{})
	router := handler.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedule", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownInstitutionRejected(t *testing.T) {
	handler := NewHandler(nil, nil, Options{})
	router := handler.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/schedule", nil)
	req.SetBasicAuth("student", "secret")
	req.Header.Set("X-Institution", "nowhere")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	for _, tc := range []struct {
		err    error
		status int
	}{
		{univer.ErrInvalidCredential, http.StatusUnauthorized},
		{univer.ErrAuthorizationExpired, http.StatusUnauthorized},
		{univer.ErrAuthorizationTimeout, http.StatusServiceUnavailable},
		{univer.ErrTimeout, http.StatusGatewayTimeout},
	} {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		respond(c, nil, tc.err)
		require.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}

func TestPushEndpointsDisabledWithoutVapidKey(t *testing.T) {
	handler := NewHandler(nil, nil, Options{})
	router := handler.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/push/key", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
