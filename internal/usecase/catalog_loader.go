package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"bookstore/internal/domain/model"

	"github.com/shopspring/decimal"
)

var ErrCatalogNotConfigured = errors.New("catalog url not configured")

// カタログ本体の上限（これ以上は壊れたレスポンス扱い）
const maxCatalogBody = 4 << 20

// CatalogResult はカタログとフォールバック使用の有無。
// UsedFallback のとき Err に取得失敗の理由が入る。
type CatalogResult struct {
	Books        []model.Book
	UsedFallback bool
	Err          error
}

// CatalogLoader はリモートのカタログを取得する。失敗したら固定データを返す。
// 結果はキャッシュしない。
type CatalogLoader struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// DI
func NewCatalogLoader(url string, timeout time.Duration, logger *slog.Logger) *CatalogLoader {
	return NewCatalogLoaderWithClient(url, &http.Client{Timeout: timeout}, logger)
}

func NewCatalogLoaderWithClient(url string, client *http.Client, logger *slog.Logger) *CatalogLoader {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogLoader{url: url, client: client, logger: logger}
}

// レスポンス {books:[...]}
type catalogBody struct {
	Books []bookRecord `json:"books"`
}

type bookRecord struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Author       string          `json:"author"`
	Price        decimal.Decimal `json:"price"`
	Availability string          `json:"availability"`
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context) CatalogResult {
	books, err := l.fetch(ctx)
	if err != nil {
		l.logger.Warn("catalog fetch failed, using fallback", "url", l.url, "error", err)
		return CatalogResult{Books: FallbackBooks(), UsedFallback: true, Err: err}
	}
	return CatalogResult{Books: books}
}

func (l *CatalogLoader) fetch(ctx context.Context) ([]model.Book, error) {
	if l.url == "" {
		return nil, ErrCatalogNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get catalog: status %d", resp.StatusCode)
	}

	var body catalogBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogBody)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(body.Books) == 0 {
		return nil, errors.New("catalog is empty")
	}

	books := make([]model.Book, 0, len(body.Books))
	seen := map[int64]struct{}{}
	for i, r := range body.Books {
		if r.ID <= 0 {
			return nil, fmt.Errorf("book[%d]: invalid id %d", i, r.ID)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("book[%d]: duplicate id %d", i, r.ID)
		}
		if r.Price.IsNegative() {
			return nil, fmt.Errorf("book[%d]: negative price", i)
		}
		availability := model.Availability(r.Availability)
		if !availability.Valid() {
			return nil, fmt.Errorf("book[%d]: invalid availability %q", i, r.Availability)
		}
		seen[r.ID] = struct{}{}

		books = append(books, model.Book{
			ID:           r.ID,
			Title:        r.Title,
			Author:       r.Author,
			Price:        r.Price,
			Availability: availability,
		})
	}
	return books, nil
}

// FallbackBooks はカタログが取れないときの固定データ（毎回新しいスライス）。
func FallbackBooks() []model.Book {
	return []model.Book{
		{
			ID:           1,
			Title:        "The Great Gatsby",
			Author:       "F. Scott Fitzgerald",
			Price:        decimal.RequireFromString("12.99"),
			Availability: model.AvailabilityInStock,
		},
		{
			ID:           2,
			Title:        "To Kill a Mockingbird",
			Author:       "Harper Lee",
			Price:        decimal.RequireFromString("14.50"),
			Availability: model.AvailabilityInStock,
		},
		{
			ID:           3,
			Title:        "1984",
			Author:       "George Orwell",
			Price:        decimal.RequireFromString("13.25"),
			Availability: model.AvailabilityOutOfStock,
		},
	}
}
