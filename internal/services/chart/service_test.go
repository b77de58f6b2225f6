package chart

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/models"
)

func newTestService(t *testing.T, fake *fakeEODHD) *Service {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Chart.Width, cfg.Chart.Height = 600, 300
	return NewService(fake, newTestCache(t), cfg, common.NewSilentLogger())
}

func TestService_Render(t *testing.T) {
	fake := newFakeEODHD()
	fake.set("AAPL.US", &models.EODResult{Bars: yearBars(2022)})
	svc := newTestService(t, fake)
	assert.Equal(t, models.ModeDualAxis, svc.DefaultMode())

	view, err := svc.Render(context.Background(), "AAPL.US", 2022, models.ModeSimple)
	require.NoError(t, err)
	assert.Equal(t, "AAPL.US", view.Symbol)
	assert.Equal(t, 2022, view.Year)
	assert.Equal(t, "simple", view.Mode)
	assert.Equal(t, 3, view.Bars)
	assert.Empty(t, view.Warning)
	assert.Contains(t, view.SVG, `class="price-area"`)
	assert.Contains(t, view.SVG, `width="890"`)
}

func TestService_RenderWarning(t *testing.T) {
	const msg = "Access restricted for this ticker on your plan."
	fake := newFakeEODHD()
	fake.set("AAPL.US", &models.EODResult{Warning: msg})
	svc := newTestService(t, fake)

	view, err := svc.Render(context.Background(), "AAPL.US", 2022, models.ModeDualAxis)
	require.NoError(t, err)
	assert.Equal(t, msg, view.Warning)
	assert.Empty(t, view.SVG)
}

func TestService_RenderFailure(t *testing.T) {
	fake := newFakeEODHD()
	fake.err = assert.AnError
	svc := newTestService(t, fake)

	view, err := svc.Render(context.Background(), "AAPL.US", 2022, models.ModeDualAxis)
	assert.Nil(t, view)
	assert.ErrorIs(t, err, common.ErrRetrievalFailed)
}

func TestService_RenderPNGUsesCache(t *testing.T) {
	fake := newFakeEODHD()
	fake.set("AAPL.US", &models.EODResult{Bars: yearBars(2022)})
	svc := newTestService(t, fake)

	_, err := svc.Render(context.Background(), "AAPL.US", 2022, models.ModeDualAxis)
	require.NoError(t, err)

	png, err := svc.RenderPNG(context.Background(), "AAPL.US", 2022, models.ModeDualAxis)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))
	assert.Equal(t, 1, fake.callCount())
}
