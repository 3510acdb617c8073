package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	require.NotNil(t, cfg.DepthThreshold)
	assert.Equal(t, 0.5, *cfg.DepthThreshold)
	require.NotNil(t, cfg.MaxDisappeared)
	assert.Equal(t, 5, *cfg.MaxDisappeared)
	require.NotNil(t, cfg.TrimEnabled)
	assert.False(t, *cfg.TrimEnabled)

	assert.Equal(t, 5, cfg.GetKernelSize())
	assert.Equal(t, 0.25, cfg.GetTrimThreshold())
	assert.Equal(t, 1, cfg.GetMinClusterPixels())
	assert.Equal(t, 90.0, cfg.GetHFOVDegrees())
	assert.Equal(t, 0.001, cfg.GetDepthScale())
	assert.Equal(t, map[string]uint8{"sidewalk": 1}, cfg.GetClasses())
	assert.Equal(t, "info", cfg.GetLogLevel())
	assert.NoError(t, cfg.Validate())
}

func TestEmptyTuningConfigFallsBack(t *testing.T) {
	cfg := EmptyTuningConfig()
	defaults := DefaultTuningConfig()

	assert.Equal(t, *defaults.DepthThreshold, cfg.GetDepthThreshold())
	assert.Equal(t, *defaults.MaxDisappeared, cfg.GetMaxDisappeared())
	assert.Equal(t, zerolog.InfoLevel, cfg.ZerologLevel())
	assert.Equal(t, []string{"sidewalk"}, cfg.ClassNames())
}

func TestLoadTuningConfigJSON(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{
  "depth_threshold": 0.75,
  "max_disappeared": 3,
  "trim_enabled": true,
  "classes": {"sidewalk": 1, "crosswalk": 2}
}`)

	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.75, cfg.GetDepthThreshold())
	assert.Equal(t, 3, cfg.GetMaxDisappeared())
	assert.True(t, cfg.GetTrimEnabled())
	assert.Equal(t, []string{"crosswalk", "sidewalk"}, cfg.ClassNames())
	// Fields omitted in file keep defaults
	assert.Equal(t, 5, cfg.GetKernelSize())
	assert.Nil(t, cfg.HFOVDegrees)
}

func TestLoadTuningConfigYAML(t *testing.T) {
	path := writeConfig(t, "tuning.yaml", `
depth_threshold: 0.3
kernel_size: 0
hfov_degrees: 70
depth_scale: 0.01
log_level: debug
classes:
  sidewalk: 4
`)

	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.3, cfg.GetDepthThreshold())
	assert.Equal(t, 0, cfg.GetKernelSize())
	assert.Equal(t, 70.0, cfg.GetHFOVDegrees())
	assert.Equal(t, 0.01, cfg.GetDepthScale())
	assert.Equal(t, zerolog.DebugLevel, cfg.ZerologLevel())
	assert.Equal(t, map[string]uint8{"sidewalk": 4}, cfg.GetClasses())
}

func TestGetClassesReturnsCopy(t *testing.T) {
	cfg := EmptyTuningConfig()
	cfg.Classes = map[string]uint8{"sidewalk": 1}
	classes := cfg.GetClasses()
	classes["road"] = 7
	assert.Len(t, cfg.Classes, 1)
}

func TestLoadTuningConfigErrors(t *testing.T) {
	t.Run("extension", func(t *testing.T) {
		path := writeConfig(t, "tuning.toml", "depth_threshold = 1")
		_, err := LoadTuningConfig(path)
		assert.Error(t, err)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTuningConfig(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})
	t.Run("too large", func(t *testing.T) {
		path := writeConfig(t, "big.json", `{"log_level": "`+strings.Repeat("a", maxFileSize)+`"}`)
		_, err := LoadTuningConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})
	t.Run("malformed", func(t *testing.T) {
		path := writeConfig(t, "broken.json", `{"depth_threshold": `)
		_, err := LoadTuningConfig(path)
		assert.Error(t, err)
	})
	t.Run("invalid value", func(t *testing.T) {
		path := writeConfig(t, "invalid.yml", "max_disappeared: -1\n")
		_, err := LoadTuningConfig(path)
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestZeroDepthThresholdIsValid(t *testing.T) {
	path := writeConfig(t, "tuning.yaml", "depth_threshold: 0\n")
	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.DepthThreshold)
	assert.Equal(t, 0.0, cfg.GetDepthThreshold())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(cfg *TuningConfig)
	}{
		{"negative depth threshold", func(cfg *TuningConfig) { cfg.DepthThreshold = ptrFloat64(-0.5) }},
		{"NaN depth threshold", func(cfg *TuningConfig) { cfg.DepthThreshold = ptrFloat64(math.NaN()) }},
		{"negative kernel", func(cfg *TuningConfig) { cfg.KernelSize = ptrInt(-3) }},
		{"negative trim threshold", func(cfg *TuningConfig) { cfg.TrimThreshold = ptrFloat64(-0.1) }},
		{"negative min pixels", func(cfg *TuningConfig) { cfg.MinClusterPixels = ptrInt(-1) }},
		{"hfov too wide", func(cfg *TuningConfig) { cfg.HFOVDegrees = ptrFloat64(400) }},
		{"zero depth scale", func(cfg *TuningConfig) { cfg.DepthScale = ptrFloat64(0) }},
		{"background class", func(cfg *TuningConfig) { cfg.Classes = map[string]uint8{"sidewalk": 0} }},
		{"unnamed class", func(cfg *TuningConfig) { cfg.Classes = map[string]uint8{"": 2} }},
		{"unknown log level", func(cfg *TuningConfig) { cfg.LogLevel = ptrString("verbose") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultTuningConfig()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
