package log

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	require.NoError(t, Config{}.Default().Validate())
	assert.Error(t, Config{AppName: "geoconsole", Level: "loud"}.Validate())
	assert.Error(t, Config{Level: "info"}.Validate())
}

func TestNew_AllWritersDisabled(t *testing.T) {
	logger := New(Config{DisableConsoleLog: true})
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
}

func TestLoggerMiddleware(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.DebugLevel)

	h := LoggerMiddleware(&logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/keys", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/api/keys"`)
	assert.Contains(t, buf.String(), `"bytes":15`)
}
