package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/deskline/helpdesk/internal/config"
)

func TestNewLogger_FallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "nonsense"}, "production")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestRequestLogger_RecordsRouteAndRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/tickets/:id", func(c *fiber.Ctx) error {
		c.Locals(UserIDLocal, "u1")
		return c.SendStatus(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/tickets/abc", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-1", resp.Header.Get(HeaderRequestID))

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "u1", fields["user_id"])
	assert.EqualValues(t, http.StatusNoContent, fields["status"])

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "/tickets/:id", "204")), 0)
}

func TestRequestLogger_GeneratesIDAndPassesErrors(t *testing.T) {
	core, _ := observer.New(zap.InfoLevel)
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return c.Status(http.StatusTeapot).SendString(err.Error())
	}})
	app.Use(RequestLogger(zap.New(core), nil))
	app.Get("/", func(c *fiber.Ctx) error { return errors.New("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()
	m.RecordEvent("ticket_created")
	m.RecordEvent("ticket_created")
	m.RecordError("/tickets", "POST", "VALIDATION_FAILED")
	m.RecordWebhook(false)

	assert.InDelta(t, 2, testutil.ToFloat64(m.events.WithLabelValues("ticket_created")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.errors.WithLabelValues("POST", "/tickets", "VALIDATION_FAILED")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.webhooks.WithLabelValues("failure")), 0)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	var nilMetrics *Metrics
	nilMetrics.RecordEvent("x")
}
