package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/product-image-scraper/pkg/utils"
)

// ImageExtensions are the path suffixes accepted as product images.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// Rule reads the first non-empty attribute, in order, from every element
// matching Selector.
type Rule struct {
	Selector   string
	Attributes []string
}

// productImageRules is the priority chain. Earlier rules win ties.
var productImageRules = []Rule{
	{`meta[property="og:image"], meta[name="og:image"]`, []string{"content"}},
	{`link[rel="image_src"]`, []string{"href"}},
	{"img#product", productImageAttrs},
	{"img.product", productImageAttrs},
	{"img.product-image", productImageAttrs},
	{"img.wp-post-image", productImageAttrs},
	{"img.attachment-shop_single", productImageAttrs},
	{"img.zoomImg", productImageAttrs},
	{"img.elevatezoom", productImageAttrs},
	{"img.primary-photo", productImageAttrs},
	{"img[class*='product']", productImageAttrs},
	{"img[data-zoom-image]", productImageAttrs},
}

var productImageAttrs = []string{"data-src", "data-large_image", "data-zoom-image", "src"}

// fallbackRule only runs when the priority chain found nothing.
var fallbackRule = Rule{"img", []string{"data-src", "src"}}

// ExtractImageURLs parses the page and returns absolute product image URLs in
// priority order, without duplicates. An empty result is not an error.
func ExtractImageURLs(htmlContent, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var raw []string
	for _, rule := range productImageRules {
		raw = append(raw, rule.collect(doc)...)
	}
	if len(raw) == 0 {
		raw = fallbackRule.collect(doc)
	}

	return normalize(raw, base), nil
}

func (r Rule) collect(doc *goquery.Document) []string {
	var out []string
	doc.Find(r.Selector).Each(func(i int, s *goquery.Selection) {
		if v := firstAttr(s, r.Attributes); v != "" {
			out = append(out, v)
		}
	})
	return out
}

func firstAttr(s *goquery.Selection, attrs []string) string {
	for _, name := range attrs {
		if v, ok := s.Attr(name); ok && v != "" {
			return v
		}
	}
	return ""
}

// normalize resolves, filters by extension and dedupes, keeping first-seen order.
func normalize(raw []string, base *url.URL) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		abs, err := utils.ToAbsoluteURL(base, u)
		if err != nil {
			continue
		}
		if !utils.HasExtension(abs, ImageExtensions) {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}
