package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildJSONWritesStructuredLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sk.log")

	logger, err := Config{Production: true, Level: "info", Format: FormatJSON, OutputPaths: []string{path}}.Build()
	require.NoError(t, err)

	logger.Named("manager").Debug("hidden")
	logger.Named("manager").Info("session ready")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"session ready"`)
	assert.Contains(t, string(data), `"logger":"manager"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestBuildRejectsBadInput(t *testing.T) {
	_, err := Config{Format: "xml"}.Build()
	assert.Error(t, err)

	_, err = Config{Level: "loud"}.Build()
	assert.ErrorContains(t, err, "parse log level")
}
