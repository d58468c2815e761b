package utils

import (
	"net/url"
	"testing"
)

func TestToAbsoluteURL(t *testing.T) {
	base, _ := url.Parse("https://shop.example.com/products/item.html")

	tests := []struct {
		in   string
		want string
	}{
		{"/img/a.jpg", "https://shop.example.com/img/a.jpg"},
		{"b.png", "https://shop.example.com/products/b.png"},
		{"//cdn.example.com/c.webp", "https://cdn.example.com/c.webp"},
		{"../d.jpeg", "https://shop.example.com/d.jpeg"},
		{"http://other.example.org/e.jpg", "http://other.example.org/e.jpg"},
	}
	for _, tt := range tests {
		got, err := ToAbsoluteURL(base, tt.in)
		if err != nil {
			t.Fatalf("ToAbsoluteURL(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ToAbsoluteURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHasExtension(t *testing.T) {
	exts := []string{".jpg", ".png"}

	tests := []struct {
		in   string
		want bool
	}{
		{"https://x.com/a.JPG", true},
		{"https://x.com/a.png?w=200", true},
		{"https://x.com/a.gif", false},
		{"https://x.com/a.jpg.html", false},
		{"https://x.com/a?file=b.jpg", false},
	}
	for _, tt := range tests {
		if got := HasExtension(tt.in, exts); got != tt.want {
			t.Errorf("HasExtension(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
