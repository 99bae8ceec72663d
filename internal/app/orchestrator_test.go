package app

import (
	"context"
	"errors"
	"testing"

	"bookstore/internal/domain/model"
	infraRepo "bookstore/internal/infra/repository"
	"bookstore/internal/ui"
	"bookstore/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// モック
// =====================

type CatalogSourceMock struct {
	mock.Mock
}

func (m *CatalogSourceMock) LoadCatalog(ctx context.Context) usecase.CatalogResult {
	args := m.Called(ctx)
	return args.Get(0).(usecase.CatalogResult)
}

type UIMock struct {
	mock.Mock
}

func (m *UIMock) Attach(books []model.Book) error {
	args := m.Called(books)
	return args.Error(0)
}

func (m *UIMock) ShowMessage(kind ui.IndicatorKind, message string) {
	m.Called(kind, message)
}

type panicCatalog struct{}

func (panicCatalog) LoadCatalog(ctx context.Context) usecase.CatalogResult {
	panic("boom")
}

// =====================
// helper
// =====================

type world struct {
	kv     *infraRepo.KVMemoryRepository
	codec  *usecase.CartCodec
	engine *usecase.CartEngine
}

func newWorld() world {
	kv := infraRepo.NewKVMemoryRepository()
	codec := usecase.NewCartCodec(kv, "cart", nil)
	return world{kv: kv, codec: codec, engine: usecase.NewCartEngine(codec, 0, nil)}
}

func (w world) orchestrator(catalog CatalogSource, view UI) *Orchestrator {
	return NewOrchestrator(catalog, w.engine, usecase.NewCartValidator(w.engine, nil), view, nil)
}

func catalogOf(books ...model.Book) usecase.CatalogResult {
	return usecase.CatalogResult{Books: books}
}

func bookOf(id int64) model.Book {
	return model.Book{
		ID:           id,
		Title:        "Book",
		Author:       "Author",
		Price:        decimal.NewFromInt(10),
		Availability: model.AvailabilityInStock,
	}
}

// =====================
// Start
// =====================

func TestStart_Success_ReconcilesStaleCart(t *testing.T) {
	ctx := context.Background()
	w := newWorld()

	// 前回のセッションでカタログに無くなった本(99)がカートに残っている
	w.codec.Save(ctx, []model.CartLine{
		{ID: 1, Title: "Book", Price: decimal.NewFromInt(10), Quantity: 2},
		{ID: 99, Title: "Gone", Price: decimal.NewFromInt(5), Quantity: 1},
	})

	catalog := new(CatalogSourceMock)
	catalog.On("LoadCatalog", mock.Anything).Return(catalogOf(bookOf(1), bookOf(2))).Once()

	view := ui.NewSynchronizer(w.engine, nil)
	o := w.orchestrator(catalog, view)

	require.NoError(t, o.Start(ctx))

	assert.Equal(t, StateReady, o.State())
	assert.Nil(t, o.Failure())
	assert.False(t, o.UsedFallback())
	assert.Equal(t, []int64{99}, o.RemovedOnStart())
	assert.Len(t, o.Books(), 2)

	// エンジン・保存先・画面が揃っている
	require.Len(t, w.engine.Items(), 1)
	assert.Equal(t, int64(1), w.engine.Items()[0].ID)
	assert.Len(t, w.codec.Load(ctx), 1)
	assert.Equal(t, 2, view.View().Badge.Count)

	catalog.AssertExpectations(t)
}

func TestStart_Fallback(t *testing.T) {
	w := newWorld()
	loader := usecase.NewCatalogLoader("", 0, nil)
	view := ui.NewSynchronizer(w.engine, nil)
	o := w.orchestrator(loader, view)

	require.NoError(t, o.Start(context.Background()))
	assert.True(t, o.UsedFallback())
	assert.Len(t, o.Books(), 3)
	assert.Len(t, view.View().Catalog.Cards, 3)
}

func TestStart_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := newWorld()
	catalog := new(CatalogSourceMock)
	view := new(UIMock)
	o := w.orchestrator(catalog, view)

	err := o.Start(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "load catalog", se.Step)
	assert.Equal(t, StateFailed, o.State())

	catalog.AssertNotCalled(t, "LoadCatalog", mock.Anything)
	view.AssertNotCalled(t, "Attach", mock.Anything)
}

func TestStart_PanicBecomesFailure(t *testing.T) {
	w := newWorld()
	view := new(UIMock)
	o := w.orchestrator(panicCatalog{}, view)

	err := o.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load catalog")
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, StateFailed, o.State())
	assert.Equal(t, err, o.Failure())
}

func TestStart_AttachFails(t *testing.T) {
	w := newWorld()
	catalog := new(CatalogSourceMock)
	catalog.On("LoadCatalog", mock.Anything).Return(catalogOf(bookOf(1)))

	view := new(UIMock)
	view.On("Attach", mock.Anything).Return(errors.New("no container"))

	o := w.orchestrator(catalog, view)
	err := o.Start(context.Background())

	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "attach ui", se.Step)
	assert.Equal(t, StateFailed, o.State())
}

func TestStart_EmptyCatalogFails(t *testing.T) {
	w := newWorld()
	catalog := new(CatalogSourceMock)
	catalog.On("LoadCatalog", mock.Anything).Return(catalogOf())

	o := w.orchestrator(catalog, new(UIMock))
	require.Error(t, o.Start(context.Background()))
	assert.Equal(t, StateFailed, o.State())
}

func TestStart_Twice(t *testing.T) {
	w := newWorld()
	o := w.orchestrator(usecase.NewCatalogLoader("", 0, nil), ui.NewSynchronizer(w.engine, nil))

	require.NoError(t, o.Start(context.Background()))
	assert.ErrorIs(t, o.Start(context.Background()), ErrAlreadyStarted)
}

// =====================
// ライフサイクル
// =====================

func TestCaptureError_ShowsIndicatorWhenReady(t *testing.T) {
	w := newWorld()
	catalog := new(CatalogSourceMock)
	catalog.On("LoadCatalog", mock.Anything).Return(catalogOf(bookOf(1)))

	view := new(UIMock)
	view.On("Attach", mock.Anything).Return(nil)
	view.On("ShowMessage", ui.IndicatorError, unexpectedErrorMessage).Once()

	o := w.orchestrator(catalog, view)
	require.NoError(t, o.Start(context.Background()))

	o.CaptureError(errors.New("handler exploded"))
	o.CaptureError(nil)

	// 致命的ではない
	assert.Equal(t, StateReady, o.State())
	view.AssertExpectations(t)
}

func TestCaptureError_IgnoredAfterFailure(t *testing.T) {
	w := newWorld()
	view := new(UIMock)
	o := w.orchestrator(panicCatalog{}, view)
	require.Error(t, o.Start(context.Background()))

	o.CaptureError(errors.New("late"))
	o.VisibilityChanged(true)
	o.Unload()

	view.AssertNotCalled(t, "ShowMessage", mock.Anything, mock.Anything)
}

func TestVisibilityAndUnload_DoNotRefetch(t *testing.T) {
	w := newWorld()
	catalog := new(CatalogSourceMock)
	catalog.On("LoadCatalog", mock.Anything).Return(catalogOf(bookOf(1))).Once()

	o := w.orchestrator(catalog, ui.NewSynchronizer(w.engine, nil))
	require.NoError(t, o.Start(context.Background()))

	o.VisibilityChanged(false)
	o.VisibilityChanged(true)
	o.Unload()

	catalog.AssertNumberOfCalls(t, "LoadCatalog", 1)
}
