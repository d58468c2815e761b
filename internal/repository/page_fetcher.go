package repository

import (
	"context"

	"github.com/user/product-image-scraper/internal/entity"
)

// PageFetcher loads a product page. A non-200 page is returned, not an error;
// errors mean the page could not be retrieved at all.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*entity.Page, error)
}
