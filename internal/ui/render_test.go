package ui

import (
	"bytes"
	"context"
	"testing"

	"bookstore/internal/domain/model"
	infraRepo "bookstore/internal/infra/repository"
	"bookstore/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPage_EscapesText(t *testing.T) {
	ctx := context.Background()
	codec := usecase.NewCartCodec(infraRepo.NewKVMemoryRepository(), "k", nil)
	engine := usecase.NewCartEngine(codec, 0, nil)
	s := NewSynchronizer(engine, nil, withScheduler((&fakeTimers{}).schedule))

	books := []model.Book{{
		ID:           7,
		Title:        "<script>alert(1)</script>",
		Author:       "A & B",
		Price:        decimal.RequireFromString("5"),
		Availability: model.AvailabilityInStock,
	}}
	require.NoError(t, s.Attach(books))
	require.NoError(t, s.AddToCart(ctx, 7))

	var buf bytes.Buffer
	require.NoError(t, RenderPage(&buf, s.View()))
	out := buf.String()

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "A &amp; B")
	assert.Contains(t, out, "$5.00")
	assert.Contains(t, out, `id="cart-count"`)
}

func TestRenderPage_EmptyBadgeHidden(t *testing.T) {
	codec := usecase.NewCartCodec(infraRepo.NewKVMemoryRepository(), "k", nil)
	s := NewSynchronizer(usecase.NewCartEngine(codec, 0, nil), nil, withScheduler((&fakeTimers{}).schedule))
	require.NoError(t, s.Attach(usecase.FallbackBooks()))

	var buf bytes.Buffer
	require.NoError(t, RenderPage(&buf, s.View()))

	assert.Contains(t, buf.String(), "Out of Stock")
	assert.Contains(t, buf.String(), "The Great Gatsby")
}

func TestRenderFatal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderFatal(&buf, `bad <thing>`))

	out := buf.String()
	assert.Contains(t, out, "Failed to load application")
	assert.Contains(t, out, "bad &lt;thing&gt;")
	assert.Contains(t, out, "Reload")
}
