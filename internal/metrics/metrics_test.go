package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCommand(t *testing.T) {
	before := testutil.ToFloat64(lessonCommands.WithLabelValues("submit_answers", "failure"))

	ObserveCommand("submit_answers", errors.New("boom"))
	ObserveCommand("submit_answers", nil)

	assert.Equal(t, before+1, testutil.ToFloat64(lessonCommands.WithLabelValues("submit_answers", "failure")))
}

func TestSessionCounters(t *testing.T) {
	mounted := testutil.ToFloat64(sessionsMounted)
	unmounted := testutil.ToFloat64(sessionsEnded.WithLabelValues("unmounted"))
	expired := testutil.ToFloat64(sessionsEnded.WithLabelValues("expired"))

	SessionMounted()
	SessionMounted()
	SessionUnmounted()
	SessionsExpired(0)
	SessionsExpired(1)

	assert.Equal(t, mounted+2, testutil.ToFloat64(sessionsMounted))
	assert.Equal(t, unmounted+1, testutil.ToFloat64(sessionsEnded.WithLabelValues("unmounted")))
	assert.Equal(t, expired+1, testutil.ToFloat64(sessionsEnded.WithLabelValues("expired")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, "lesson_http_request_duration_seconds"))
	assert.True(t, strings.Contains(body, `route="/ping"`))
}
