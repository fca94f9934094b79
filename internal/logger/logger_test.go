package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	log, closer, err := New(DefaultConfig())
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestNew_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.Format = "json"
	cfg.Output = OutputFile
	cfg.File = path

	log, closer, err := New(cfg)
	require.NoError(t, err)

	log.WithField("collection", "services").Debug("seeded")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"collection":"services"`)
	assert.Contains(t, string(data), `"message":"seeded"`)
}

func TestNew_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(*Config)
	}{
		{"level", func(c *Config) { c.Level = "loud" }},
		{"format", func(c *Config) { c.Format = "xml" }},
		{"output", func(c *Config) { c.Output = "syslog" }},
		{"missing file", func(c *Config) { c.Output = OutputFile; c.File = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.cfg(&cfg)
			_, _, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodPut, "/api/json/services", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"method":"PUT"`)
	assert.Contains(t, out, `"level":"warning"`)
}
