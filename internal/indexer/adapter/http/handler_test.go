package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"catsvg-indexer/internal/indexer/domain/model"
	apperrors "catsvg-indexer/internal/shared/errors"
	"catsvg-indexer/internal/shared/eventbus"
	"catsvg-indexer/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenRepo struct {
	records   []model.TokenRecord
	insertErr error
	listErr   error
	inserted  []*model.TokenRecord
}

func (f *fakeTokenRepo) Exists(ctx context.Context, tokenID string) (bool, error) {
	for _, rec := range f.records {
		if rec.TokenID == tokenID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTokenRepo) Insert(ctx context.Context, rec *model.TokenRecord) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}
	f.inserted = append(f.inserted, rec)
	f.records = append(f.records, *rec)
	return true, nil
}

func (f *fakeTokenRepo) ListAll(ctx context.Context) ([]model.TokenRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

type fakeCatTextRepo struct {
	texts  map[string]string
	getErr error
}

func (f *fakeCatTextRepo) Upsert(ctx context.Context, tokenID, text string) error {
	f.texts[tokenID] = text
	return nil
}

func (f *fakeCatTextRepo) GetText(ctx context.Context, tokenID string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	text, ok := f.texts[tokenID]
	return text, ok, nil
}

type fakeGenerator struct {
	svg   string
	err   error
	theme string
}

func (f *fakeGenerator) Generate(ctx context.Context, theme string) (string, error) {
	f.theme = theme
	if f.err != nil {
		return "", f.err
	}
	return f.svg, nil
}

type fakeReconciler struct {
	err  error
	runs int
}

func (f *fakeReconciler) ReconcileOnce(ctx context.Context) error {
	f.runs++
	return f.err
}

type testDeps struct {
	tokens     *fakeTokenRepo
	catTexts   *fakeCatTextRepo
	generator  *fakeGenerator
	reconciler *fakeReconciler
	bus        *eventbus.EventBus
}

func newTestApp(deps *testDeps) *fiber.App {
	app := fiber.New()
	h := NewHandler(
		deps.tokens,
		deps.catTexts,
		deps.generator,
		deps.reconciler,
		deps.bus,
		logger.NewLogger(),
	)
	h.RegisterRoutes(app)
	return app
}

func defaultDeps() *testDeps {
	return &testDeps{
		tokens:     &fakeTokenRepo{},
		catTexts:   &fakeCatTextRepo{texts: make(map[string]string)},
		generator:  &fakeGenerator{svg: "<svg></svg>"},
		reconciler: &fakeReconciler{},
		bus:        eventbus.NewEventBus(logger.NewLogger()),
	}
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (int, []byte) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func getPath(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestGenerateSVGSuccess(t *testing.T) {
	deps := defaultDeps()
	app := newTestApp(deps)

	code, body := postJSON(t, app, "/generate-svg", map[string]string{"theme": "retro"})
	assert.Equal(t, 200, code)

	var result map[string]string
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "<svg></svg>", result["svg"])
	assert.Equal(t, "retro", deps.generator.theme)
}

func TestGenerateSVGUpstreamFailure(t *testing.T) {
	deps := defaultDeps()
	deps.generator.err = apperrors.NewUpstreamError("generative model invocation failed")
	app := newTestApp(deps)

	code, body := postJSON(t, app, "/generate-svg", map[string]string{"theme": "retro"})
	assert.Equal(t, 500, code)

	var result map[string]string
	require.NoError(t, json.Unmarshal(body, &result))
	assert.NotEmpty(t, result["error"])
}

func TestPublishSVGSuccess(t *testing.T) {
	deps := defaultDeps()
	app := newTestApp(deps)

	code, body := postJSON(t, app, "/publish-svg", map[string]string{"svg": "<svg>cat</svg>"})
	assert.Equal(t, 200, code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, true, result["success"])
	assert.NotEmpty(t, result["id"])

	require.Len(t, deps.tokens.inserted, 1)
	stored := deps.tokens.inserted[0]
	assert.Equal(t, model.SourcePublished, stored.Source)
	assert.Empty(t, stored.TokenID)
	assert.Equal(t, result["id"], stored.PublishID)
}

func TestPublishSVGMissingBody(t *testing.T) {
	app := newTestApp(defaultDeps())

	code, _ := postJSON(t, app, "/publish-svg", map[string]string{})
	assert.Equal(t, 400, code)
}

func TestPublishSVGStoreFailure(t *testing.T) {
	deps := defaultDeps()
	deps.tokens.insertErr = errors.New("store down")
	app := newTestApp(deps)

	code, _ := postJSON(t, app, "/publish-svg", map[string]string{"svg": "<svg></svg>"})
	assert.Equal(t, 500, code)
}

func TestPublishSVGEventOutlivesRequest(t *testing.T) {
	deps := defaultDeps()
	app := newTestApp(deps)

	type published struct {
		ctx   context.Context
		event eventbus.Event
	}
	got := make(chan published, 1)
	deps.bus.Subscribe(eventbus.EventTypeSVGPublished, func(ctx context.Context, event eventbus.Event) error {
		got <- published{ctx: ctx, event: event}
		return nil
	})

	code, _ := postJSON(t, app, "/publish-svg", map[string]string{"svg": "<svg>cat</svg>"})
	assert.Equal(t, 200, code)

	select {
	case p := <-got:
		assert.Equal(t, eventbus.EventTypeSVGPublished, p.event.Type())
		// The publish is asynchronous; its context must not be tied to the
		// already-completed request.
		assert.Nil(t, p.ctx.Done())
		assert.NoError(t, p.ctx.Err())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestGetSVGsReturnsAllRecords(t *testing.T) {
	deps := defaultDeps()
	deps.tokens.records = []model.TokenRecord{
		*model.NewReconciledToken("101", "<svg>a</svg>"),
		*model.NewPublishedSVG("<svg>b</svg>"),
	}
	app := newTestApp(deps)

	code, body := getPath(t, app, "/get-svgs")
	assert.Equal(t, 200, code)

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "101", records[0]["tokenId"])
	assert.Equal(t, string(model.SourcePublished), records[1]["source"])
}

func TestGetSVGsEmptyIsArray(t *testing.T) {
	app := newTestApp(defaultDeps())

	code, body := getPath(t, app, "/get-svgs")
	assert.Equal(t, 200, code)
	assert.Equal(t, "[]", string(bytes.TrimSpace(body)))
}

func TestFetchSVGsRunsOnePass(t *testing.T) {
	deps := defaultDeps()
	app := newTestApp(deps)

	code, body := getPath(t, app, "/fetch-svgs")
	assert.Equal(t, 200, code)
	assert.Equal(t, 1, deps.reconciler.runs)

	var result map[string]string
	require.NoError(t, json.Unmarshal(body, &result))
	assert.NotEmpty(t, result["message"])
}

func TestFetchSVGsPassFailure(t *testing.T) {
	deps := defaultDeps()
	deps.reconciler.err = apperrors.NewConnectivityError("endpoint down")
	app := newTestApp(deps)

	code, _ := getPath(t, app, "/fetch-svgs")
	assert.Equal(t, 500, code)
}

func TestGetCatTextFound(t *testing.T) {
	deps := defaultDeps()
	deps.catTexts.texts["5"] = "a very fine cat"
	app := newTestApp(deps)

	code, body := getPath(t, app, "/get-cat-text/5")
	assert.Equal(t, 200, code)

	var text string
	require.NoError(t, json.Unmarshal(body, &text))
	assert.Equal(t, "a very fine cat", text)
}

func TestGetCatTextAbsentReturnsNull(t *testing.T) {
	app := newTestApp(defaultDeps())

	code, body := getPath(t, app, "/get-cat-text/999")
	assert.Equal(t, 200, code)
	assert.Equal(t, "null", string(bytes.TrimSpace(body)))
}

func TestGetCatTextStoreFailure(t *testing.T) {
	deps := defaultDeps()
	deps.catTexts.getErr = errors.New("store down")
	app := newTestApp(deps)

	code, _ := getPath(t, app, "/get-cat-text/5")
	assert.Equal(t, 500, code)
}
