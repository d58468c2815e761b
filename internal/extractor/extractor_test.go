package extractor

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/user/product-image-scraper/pkg/utils"
)

const pageURL = "https://shop.example.com/catalogo/filtro-aceite.html"

func TestOpenGraphComesFirst(t *testing.T) {
	html := `<html><head>
		<link rel="image_src" href="/img/link.jpg">
		<meta property="og:image" content="/img/og.jpg">
	</head><body>
		<img class="product-image" src="/img/main.png">
	</body></html>`

	got, err := ExtractImageURLs(html, pageURL)
	if err != nil {
		t.Fatalf("ExtractImageURLs: %v", err)
	}
	want := []string{
		"https://shop.example.com/img/og.jpg",
		"https://shop.example.com/img/link.jpg",
		"https://shop.example.com/img/main.png",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMetaNameOgImage(t *testing.T) {
	html := `<head><meta name="og:image" content="https://cdn.example.com/p/1.webp"></head>`

	got, err := ExtractImageURLs(html, pageURL)
	if err != nil {
		t.Fatalf("ExtractImageURLs: %v", err)
	}
	if len(got) != 1 || got[0] != "https://cdn.example.com/p/1.webp" {
		t.Errorf("unexpected result %v", got)
	}
}

func TestOnlyImageExtensionsReturned(t *testing.T) {
	html := `<head>
		<meta property="og:image" content="/img/a.JPG?v=3">
		<meta property="og:image" content="/img/b.gif">
		<meta property="og:image" content="/img/c.svg">
		<meta property="og:image" content="/img/d.jpeg">
		<meta property="og:image" content="/image.php?file=e.jpg">
		<meta property="og:image" content="/img/f.webp#zoom">
		<meta property="og:image" content="/img/g.PNG">
	</head>`

	got, err := ExtractImageURLs(html, pageURL)
	if err != nil {
		t.Fatalf("ExtractImageURLs: %v", err)
	}
	want := []string{
		"https://shop.example.com/img/a.JPG?v=3",
		"https://shop.example.com/img/d.jpeg",
		"https://shop.example.com/img/f.webp#zoom",
		"https://shop.example.com/img/g.PNG",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	for _, u := range got {
		if !utils.HasExtension(u, ImageExtensions) {
			t.Errorf("returned non-image url %s", u)
		}
	}
}

func TestDeduplicatesAcrossStages(t *testing.T) {
	html := `<head>
		<link rel="image_src" href="https://shop.example.com/img/same.jpg">
		<meta property="og:image" content="/img/og.jpg">
	</head><body>
		<img id="product" src="/img/same.jpg">
		<img class="wp-post-image" data-src=" /img/og.jpg ">
		<img class="zoomImg" src="/img/zoom.jpg">
	</body>`

	got, err := ExtractImageURLs(html, pageURL)
	if err != nil {
		t.Fatalf("ExtractImageURLs: %v", err)
	}
	want := []string{
		"https://shop.example.com/img/og.jpg",
		"https://shop.example.com/img/same.jpg",
		"https://shop.example.com/img/zoom.jpg",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestFallbackOnlyWhenChainEmpty(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<head><meta property="og:image" content="/img/og.jpg"></head><body>`)
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, `<img src="/img/other-%d.jpg">`, i)
	}
	b.WriteString(`</body>`)

	got, err := ExtractImageURLs(b.String(), pageURL)
	if err != nil {
		t.Fatalf("ExtractImageURLs: %v", err)
	}
	if len(got) != 1 || got[0] != "https://shop.example.com/img/og.jpg" {
		t.Errorf("expected only the og:image, got %v", got)
	}
}

func TestFallbackPrefersLazyAttribute(t *testing.T) {
	html := `<body>
		<img src="/img/placeholder.gif" data-src="/img/lazy.jpg">
		<img src="/img/plain.png">
		<img alt="no source">
	</body>`

	got, err := ExtractImageURLs(html, pageURL)
	if err != nil {
		t.Fatalf("ExtractImageURLs: %v", err)
	}
	want := []string{
		"https://shop.example.com/img/lazy.jpg",
		"https://shop.example.com/img/plain.png",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSelectorAttributePreference(t *testing.T) {
	html := `<body>
		<img class="product" src="/s.jpg" data-zoom-image="/z.jpg" data-large_image="/l.jpg">
		<img class="product" src="/s2.jpg" data-zoom-image="/z2.jpg">
		<img class="product" src="/s3.jpg" data-src="">
	</body>`

	got, err := ExtractImageURLs(html, pageURL)
	if err != nil {
		t.Fatalf("ExtractImageURLs: %v", err)
	}
	want := []string{
		"https://shop.example.com/l.jpg",
		"https://shop.example.com/z2.jpg",
		"https://shop.example.com/s3.jpg",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSelectorOrderBeatsDocumentOrder(t *testing.T) {
	// img.product-image comes before img.zoomImg in the chain even though the
	// zoom image appears first in the document.
	html := `<body>
		<img class="zoomImg" src="/zoom.jpg">
		<img class="product-image" src="/main.jpg">
	</body>`

	got, err := ExtractImageURLs(html, pageURL)
	if err != nil {
		t.Fatalf("ExtractImageURLs: %v", err)
	}
	want := []string{
		"https://shop.example.com/main.jpg",
		"https://shop.example.com/zoom.jpg",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNoImages(t *testing.T) {
	got, err := ExtractImageURLs(`<html><body><p>Sin imagen</p></body></html>`, pageURL)
	if err != nil {
		t.Fatalf("ExtractImageURLs: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %v", got)
	}
}

func TestInvalidBaseURL(t *testing.T) {
	if _, err := ExtractImageURLs("<html></html>", "http://[::1"); err == nil {
		t.Error("expected error for invalid base url")
	}
}
