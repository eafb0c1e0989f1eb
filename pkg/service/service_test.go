package service

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-shipyard/pkg/analysis"
	"github.com/opd-ai/go-shipyard/pkg/blueprint"
	"github.com/opd-ai/go-shipyard/pkg/catalog"
	"github.com/opd-ai/go-shipyard/pkg/event"
	"github.com/opd-ai/go-shipyard/pkg/logging"
	"github.com/opd-ai/go-shipyard/pkg/render"
	"github.com/opd-ai/go-shipyard/pkg/validation"
)

func testCatalog() *catalog.Memory {
	unit := catalog.PartSpec{Size: [2]int{1, 1}, Mass: 1, Category: catalog.Armor}
	return catalog.NewMemory().
		AddPart("s.hull", unit).
		AddThruster("s.thruster", catalog.PartSpec{Size: [2]int{1, 1}, Mass: 1, Category: catalog.Movement}, catalog.ThrusterSpec{
			Thrust: 1000,
			Points: []catalog.ThrustPoint{{X: 0.5, Y: 1, Orientation: analysis.Up}},
		})
}

func testBlueprint() *blueprint.Blueprint {
	return &blueprint.Blueprint{
		Name:            "Corvette",
		Author:          "someone",
		Tags:            []string{"test"},
		FlightDirection: int(analysis.North),
		Parts: []blueprint.Part{
			{ID: "s.hull", Location: [2]int{0, 0}},
			{ID: "s.hull", Location: [2]int{1, 0}},
			{ID: "s.thruster", Location: [2]int{0, 1}},
			{ID: "s.thruster", Location: [2]int{1, 1}},
		},
	}
}

func newTestService(opts ...Option) *Service {
	return New(testCatalog(), append([]Option{WithLogger(logging.Discard())}, opts...)...)
}

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	url   string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, png []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.url, f.err
}

func TestAnalyze_Report(t *testing.T) {
	svc := newTestService()
	bp := testBlueprint()

	report, err := svc.Analyze(context.Background(), bp, Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "Corvette", report.Name)
	assert.InDelta(t, 1.0, report.CenterOfMassX, 1e-9)
	assert.InDelta(t, 1.0, report.CenterOfMassY, 1e-9)
	assert.InDelta(t, 4.0, report.TotalMass, 1e-9)
	assert.Equal(t, "N", report.FlightDirection)
	assert.Len(t, report.AllDirectionSpeeds, 8)
	assert.InDelta(t, report.AllDirectionSpeeds["N"], report.TopSpeed, 1e-9)
	assert.Greater(t, report.TopSpeed, 0.0)
	assert.Equal(t, "someone", report.Author)
	assert.Equal(t, []string{"test"}, report.Tags)
	assert.Empty(t, report.Warnings)
	assert.Empty(t, report.Image)
	assert.False(t, report.Cached)
}

func TestAnalyze_DoesNotModifyInput(t *testing.T) {
	svc := newTestService()
	bp := testBlueprint()
	bp.Name = "  <b>Corvette</b>  "
	bp.Parts = append(bp.Parts, blueprint.Part{ID: "s.ghost", Location: [2]int{3, 3}})

	report, err := svc.Analyze(context.Background(), bp, Options{})
	require.NoError(t, err)

	assert.Equal(t, "&lt;b&gt;Corvette&lt;/b&gt;", report.Name)
	assert.Equal(t, "  <b>Corvette</b>  ", bp.Name)
	assert.Equal(t, blueprint.PartID("s.ghost"), bp.Parts[4].ID)
}

func TestAnalyze_UnknownParts(t *testing.T) {
	svc := newTestService()
	var got []*event.UnknownPartsEvent
	svc.Events().Subscribe(event.UnknownPartsFound, func(e event.Event) {
		got = append(got, e.(*event.UnknownPartsEvent))
	})

	bp := testBlueprint()
	bp.Parts = append(bp.Parts,
		blueprint.Part{ID: "s.ghost", Location: [2]int{3, 3}},
		blueprint.Part{ID: "s.ghost", Location: [2]int{4, 3}},
	)
	report, err := svc.Analyze(context.Background(), bp, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"unknown part: s.ghost"}, report.Warnings)
	assert.InDelta(t, 4.0, report.TotalMass, 1e-9, "unknown parts carry no mass")
	require.Len(t, got, 1)
	assert.Equal(t, "Corvette", got[0].Ship)
}

func TestAnalyze_Cache(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, err := svc.Analyze(ctx, testBlueprint(), Options{})
	require.NoError(t, err)
	second, err := svc.Analyze(ctx, testBlueprint(), Options{})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.TopSpeed, second.TopSpeed)
	assert.Equal(t, 1, svc.CacheLen())

	second.AllDirectionSpeeds["N"] = -1
	third, err := svc.Analyze(ctx, testBlueprint(), Options{})
	require.NoError(t, err)
	assert.Equal(t, first.TopSpeed, third.AllDirectionSpeeds["N"], "cached reports are copied")

	_, err = svc.Analyze(ctx, testBlueprint(), Options{BoostEnabled: true})
	require.NoError(t, err)
	assert.Equal(t, 2, svc.CacheLen())
}

func TestAnalyze_CacheDisabled(t *testing.T) {
	svc := newTestService(WithCacheSize(0))
	ctx := context.Background()

	_, err := svc.Analyze(ctx, testBlueprint(), Options{})
	require.NoError(t, err)
	second, err := svc.Analyze(ctx, testBlueprint(), Options{})
	require.NoError(t, err)
	assert.False(t, second.Cached)
	assert.Zero(t, svc.CacheLen())
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name    string
		service *Service
		mutate  func(*blueprint.Blueprint)
		want    error
	}{
		{
			name:    "too_many_parts",
			service: newTestService(WithValidator(validation.NewBlueprintValidator(validation.Limits{MaxParts: 2}))),
			mutate:  func(*blueprint.Blueprint) {},
			want:    validation.ErrLimitExceeded,
		},
		{
			name:    "invalid_rotation",
			service: newTestService(),
			mutate:  func(bp *blueprint.Blueprint) { bp.Parts[0].Rotation = 7 },
			want:    analysis.ErrInvalidRotation,
		},
		{
			name:    "flight_direction",
			service: newTestService(),
			mutate:  func(bp *blueprint.Blueprint) { bp.FlightDirection = 9 },
			want:    validation.ErrInvalidField,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var failed int
			tt.service.Events().Subscribe(event.AnalysisFailed, func(event.Event) { failed++ })

			bp := testBlueprint()
			tt.mutate(bp)
			_, err := tt.service.Analyze(context.Background(), bp, Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, 1, failed)
		})
	}

	_, err := newTestService().Analyze(context.Background(), nil, Options{})
	assert.ErrorIs(t, err, blueprint.ErrMalformed)
}

func TestAnalyze_Render(t *testing.T) {
	svc := newTestService()
	report, err := svc.Analyze(context.Background(), testBlueprint(), Options{
		Render:   true,
		Overlays: render.Options{DrawCoM: true, DrawCoT: true},
	})
	require.NoError(t, err)
	require.NotEmpty(t, report.Image)

	img, err := png.Decode(bytes.NewReader(report.Image))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds().Dx(), img.Bounds().Dy())
}

func TestAnalyze_Upload(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		up := &fakeUploader{url: "https://img.example/abc.png"}
		svc := newTestService(WithUploader(up))
		var uploads int
		svc.Events().Subscribe(event.UploadCompleted, func(event.Event) { uploads++ })

		report, err := svc.Analyze(context.Background(), testBlueprint(), Options{Upload: true})
		require.NoError(t, err)
		assert.Equal(t, "https://img.example/abc.png", report.ImageURL)
		assert.NotEmpty(t, report.Image, "upload implies render")
		assert.Equal(t, 1, up.calls)
		assert.Equal(t, 1, uploads)
	})

	t.Run("failure_is_a_warning", func(t *testing.T) {
		up := &fakeUploader{err: errors.New("host down")}
		svc := newTestService(WithUploader(up))

		report, err := svc.Analyze(context.Background(), testBlueprint(), Options{Upload: true})
		require.NoError(t, err)
		assert.Empty(t, report.ImageURL)
		assert.Contains(t, report.Warnings, "image upload failed: host down")
	})

	t.Run("failure_is_retried", func(t *testing.T) {
		up := &fakeUploader{err: errors.New("host down")}
		svc := newTestService(WithUploader(up))

		first, err := svc.Analyze(context.Background(), testBlueprint(), Options{Upload: true})
		require.NoError(t, err)
		assert.Empty(t, first.ImageURL)
		assert.Zero(t, svc.CacheLen())

		up.mu.Lock()
		up.err, up.url = nil, "https://img.example/ok.png"
		up.mu.Unlock()

		second, err := svc.Analyze(context.Background(), testBlueprint(), Options{Upload: true})
		require.NoError(t, err)
		assert.False(t, second.Cached)
		assert.Equal(t, "https://img.example/ok.png", second.ImageURL)
		assert.NotContains(t, second.Warnings, "image upload failed: host down")
		assert.Equal(t, 2, up.calls)

		third, err := svc.Analyze(context.Background(), testBlueprint(), Options{Upload: true})
		require.NoError(t, err)
		assert.True(t, third.Cached)
		assert.Equal(t, "https://img.example/ok.png", third.ImageURL)
		assert.Equal(t, 2, up.calls)
	})

	t.Run("not_configured", func(t *testing.T) {
		svc := newTestService()
		report, err := svc.Analyze(context.Background(), testBlueprint(), Options{Upload: true})
		require.NoError(t, err)
		assert.Contains(t, report.Warnings, "image upload is not configured")
	})
}

func TestAnalyze_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestService().Analyze(ctx, testBlueprint(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeBatch(t *testing.T) {
	svc := newTestService(WithBatchConcurrency(2))

	bps := make([]*blueprint.Blueprint, 5)
	for i := range bps {
		bps[i] = testBlueprint()
		bps[i].Parts = bps[i].Parts[:2+i%3]
	}
	reports, err := svc.AnalyzeBatch(context.Background(), bps, Options{})
	require.NoError(t, err)
	require.Len(t, reports, len(bps))
	for i, r := range reports {
		assert.InDelta(t, float64(len(bps[i].Parts)), r.TotalMass, 1e-9, "report %d out of order", i)
	}

	bps[3].Parts[0].Rotation = 5
	_, err = svc.AnalyzeBatch(context.Background(), bps, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, analysis.ErrInvalidRotation)
	assert.Contains(t, err.Error(), "blueprint 3")
}

func TestFingerprint(t *testing.T) {
	base := Fingerprint(testBlueprint(), Options{})
	assert.Equal(t, base, Fingerprint(testBlueprint(), Options{}))

	moved := testBlueprint()
	moved.Parts[0].Location = [2]int{5, 5}
	assert.NotEqual(t, base, Fingerprint(moved, Options{}))

	flipped := testBlueprint()
	flipped.Parts[0].FlipX = true
	assert.NotEqual(t, base, Fingerprint(flipped, Options{}))

	assert.NotEqual(t, base, Fingerprint(testBlueprint(), Options{BoostEnabled: true}))
	assert.NotEqual(t, base, Fingerprint(testBlueprint(), Options{Overlays: render.Options{DrawCoM: true}}))

	renamed := testBlueprint()
	renamed.Name = "Frigate"
	assert.NotEqual(t, base, Fingerprint(renamed, Options{}))
}

func TestReportCache_Evicts(t *testing.T) {
	c := newReportCache(2)
	c.Put(1, &Report{ID: "a"})
	c.Put(2, &Report{ID: "b"})
	_, ok := c.Get(1)
	require.True(t, ok)
	c.Put(3, &Report{ID: "c"})

	_, ok = c.Get(2)
	assert.False(t, ok, "least recently used entry should be evicted")
	r, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a", r.ID)
	assert.Equal(t, 2, c.Len())
}
