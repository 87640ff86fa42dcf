package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Validation(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, setup(&buf, "local", "loud", ""))
	assert.Error(t, setup(&buf, "local", "", ""))
	assert.Error(t, setup(&buf, "local", "info", "xml"))
	assert.NoError(t, setup(&buf, "local", "debug", ""))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	require.NoError(t, setup(&buf, "test", "info", "json"))

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "incoming request", line["message"])
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/health", line["URI"])
	assert.Equal(t, float64(http.StatusNoContent), line["status"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "test", line["env"])

	log.Logger = zerolog.Nop()
}
