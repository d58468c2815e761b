package httpclient

import (
	"context"
	"fmt"
	"io"

	"github.com/user/product-image-scraper/internal/entity"
	"golang.org/x/net/html/charset"
)

// PageFetcher loads product pages through the retrying client.
type PageFetcher struct {
	client *Client
}

func NewPageFetcher(client *Client) *PageFetcher {
	return &PageFetcher{client: client}
}

// Fetch returns the page with its final status code. The body is converted to
// UTF-8 using the declared charset.
func (f *PageFetcher) Fetch(ctx context.Context, url string) (*entity.Page, error) {
	resp, err := f.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	page := &entity.Page{URL: url, StatusCode: resp.StatusCode}
	if resp.StatusCode != 200 {
		return page, nil
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	html, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read page body: %w", err)
	}
	page.HTML = string(html)
	return page, nil
}
