package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNavigation_Counts(t *testing.T) {
	m := New("test")

	m.Navigation("Chat", "rendered")
	m.Navigation("Chat", "rendered")
	m.Navigation("/", "redirected")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.navigations.WithLabelValues("Chat", "rendered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.navigations.WithLabelValues("/", "redirected")))
}

func TestHandler_ExposesNavigations(t *testing.T) {
	m := New("test")
	m.Navigation("DatabaseManager", "rendered")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `test_navigations_total{outcome="rendered",route="DatabaseManager"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}

func TestMiddleware_ObservesRoutePattern(t *testing.T) {
	m := New("test")

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/chat", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, p := range []string{"/chat", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	// One series for the matched pattern, one for the unmatched request.
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration, "test_http_request_duration_seconds"))
}
