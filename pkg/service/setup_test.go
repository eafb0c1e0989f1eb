package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-shipyard/pkg/blueprint"
	"github.com/opd-ai/go-shipyard/pkg/catalog"
	"github.com/opd-ai/go-shipyard/pkg/config"
	"github.com/opd-ai/go-shipyard/pkg/logging"
	"github.com/opd-ai/go-shipyard/pkg/metrics"
)

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	comps, err := FromConfig(cfg, logging.Discard(), metrics.NewCollector())
	require.NoError(t, err)

	assert.Positive(t, comps.Catalog.Len())
	assert.Nil(t, comps.Uploader)
	assert.Same(t, comps.Events, comps.Service.Events())

	bp, err := blueprint.LoadFile(filepath.Join("..", "..", "testdata", "corvette.json"))
	require.NoError(t, err)
	report, err := comps.Service.Analyze(context.Background(), bp, DefaultOptions(cfg))
	require.NoError(t, err)
	assert.Positive(t, report.TopSpeed)
	assert.Positive(t, report.Price)
	assert.NotEmpty(t, report.Image, "the default config draws")
}

func TestFromConfig_Upload(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Upload.Enabled = true
	comps, err := FromConfig(cfg, logging.Discard(), nil)
	require.NoError(t, err)
	require.NotNil(t, comps.Uploader)
	assert.Equal(t, "closed", comps.Uploader.State())

	opts := DefaultOptions(cfg)
	assert.True(t, opts.Upload)
	assert.True(t, opts.Overlays.DrawCoM)
}

func TestFromConfig_MissingCatalog(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "parts.yaml")
	_, err := FromConfig(cfg, logging.Discard(), nil)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}
