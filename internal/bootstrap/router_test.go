package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pap-cedram/pap-backend/internal/catalog/service"
	"github.com/pap-cedram/pap-backend/internal/catalog/table"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return BuildRouter(RouterDeps{
		ServiceName: "pap-backend",
		Version:     "test",
		CORSOrigins: []string{"https://pap.example"},
		RateRPS:     1,
		RateBurst:   1,
		Catalog:     service.NewCatalogService(table.NewMemoryStore(), nil, nil),
	})
}

func TestBuildRouter_Routes(t *testing.T) {
	r := testRouter()

	for _, path := range []string{"/health", "/healthz", "/api/v1/projects", "/api/v1/options", "/api/v1/stats", "/api/v1/vocabulary"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.NotEmpty(t, rr.Header().Get("X-Request-Id"), path)
	}
}

func TestBuildRouter_CORS(t *testing.T) {
	r := testRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	req.Header.Set("Origin", "https://pap.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, "https://pap.example", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestBuildRouter_WritesAreRateLimited(t *testing.T) {
	r := testRouter()

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/v1/projects/nadie", nil))
		codes = append(codes, rr.Code)
	}
	require.Len(t, codes, 2)
	assert.Equal(t, []int{http.StatusNotFound, http.StatusTooManyRequests}, codes)
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("production", "warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1))
	assert.True(t, l.Core().Enabled(1))

	_, err = NewLogger("development", "loud")
	assert.Error(t, err)
}

func TestSetGinMode(t *testing.T) {
	defer gin.SetMode(gin.TestMode)

	SetGinMode("production")
	assert.Equal(t, gin.ReleaseMode, gin.Mode())
}
