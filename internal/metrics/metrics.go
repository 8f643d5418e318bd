package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Counter for gate commands, status: success/failure
	lessonCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_commands_total",
			Help: "Total number of lesson session commands",
		},
		[]string{"command", "status"},
	)

	lessonCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_completions_total",
			Help: "Total number of lessons completed, by challenge type",
		},
		[]string{"challenge_type"},
	)

	sessionsMounted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lesson_sessions_mounted_total",
			Help: "Total number of lesson sessions mounted",
		},
	)

	// Sessions that left the store, reason: unmounted/expired. Stores that
	// expire entries server-side never report "expired".
	sessionsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_sessions_ended_total",
			Help: "Total number of lesson sessions removed from the store",
		},
		[]string{"reason"},
	)

	importedChallenges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_challenges_imported_total",
			Help: "Total number of challenges processed by workbook imports",
		},
		[]string{"status"}, // status: imported/failed
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lesson_http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// ObserveCommand records the outcome of one session command.
func ObserveCommand(command string, err error) {
	lessonCommands.WithLabelValues(command, status(err)).Inc()
}

func ObserveCompletion(challengeType int) {
	lessonCompletions.WithLabelValues(strconv.Itoa(challengeType)).Inc()
}

func SessionMounted() {
	sessionsMounted.Inc()
}

func SessionUnmounted() {
	sessionsEnded.WithLabelValues("unmounted").Inc()
}

func SessionsExpired(n int) {
	if n > 0 {
		sessionsEnded.WithLabelValues("expired").Add(float64(n))
	}
}

func ObserveImport(imported, failed int) {
	importedChallenges.WithLabelValues("imported").Add(float64(imported))
	importedChallenges.WithLabelValues("failed").Add(float64(failed))
}

// Middleware times every request against its route template so that path
// parameters do not explode the label set.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
