package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rnaseqde/domain/expression"
	"rnaseqde/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "PVALUE_METHOD", "HEATMAP_SOURCE", "DATABASE_URL", "DATABASE_DRIVER", "SESSION_TTL", "ANALYSIS_SEED", "MAX_UPLOAD_BYTES"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, expression.PValueSimulated, cfg.Analysis.PValueMethod)
	assert.Equal(t, HeatmapRandom, cfg.Analysis.HeatmapSource)
	assert.Equal(t, int64(0), cfg.Analysis.Seed)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PVALUE_METHOD", "welch")
	t.Setenv("HEATMAP_SOURCE", "Expression")
	t.Setenv("ANALYSIS_SEED", "42")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("DATABASE_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, expression.PValueWelch, cfg.Analysis.PValueMethod)
	assert.Equal(t, HeatmapExpression, cfg.Analysis.HeatmapSource)
	assert.Equal(t, int64(42), cfg.Analysis.Seed)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("HEATMAP_SOURCE", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("PVALUE_METHOD", "deseq2")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	t.Setenv("PVALUE_METHOD", "")
	t.Setenv("HEATMAP_SOURCE", "zscore")
	_, err = Load()
	assert.Error(t, err)
}
