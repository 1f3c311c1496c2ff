package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoFileUsesBuiltInDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1000.0, cfg.Optimizer.Costs.RelocationBase)
	assert.Equal(t, 7, cfg.Optimizer.Assignment.LookAheadDays)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_EnvOverrideWinsOverDefault(t *testing.T) {
	os.Setenv("FLEETSIM_SERVER_PORT", "9090")
	defer os.Unsetenv("FLEETSIM_SERVER_PORT")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_MissingConfigFileIsNotAnError(t *testing.T) {
	_, err := Load("/nonexistent/path/does-not-exist.yaml")
	require.NoError(t, err)
}
