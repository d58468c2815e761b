package redis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/user/product-image-scraper/internal/entity"
)

func TestDecodeRun(t *testing.T) {
	run := entity.Run{
		ID:            "run-1",
		Rows:          []entity.ProductRow{{Reference: "A1", SourceURL: "https://shop.example.com/a1"}},
		MaxPerProduct: 2,
		SubmittedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(run)
	if err != nil {
		t.Fatal(err)
	}

	got, err := decodeRun(payload)
	if err != nil {
		t.Fatalf("decodeRun: %v", err)
	}
	if got.ID != "run-1" || got.MaxPerProduct != 2 || len(got.Rows) != 1 || got.Rows[0].SourceURL != run.Rows[0].SourceURL {
		t.Errorf("unexpected run %+v", got)
	}
	if !got.SubmittedAt.Equal(run.SubmittedAt) {
		t.Errorf("expected %v, got %v", run.SubmittedAt, got.SubmittedAt)
	}

	if _, err := decodeRun([]byte("not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestStatusKey(t *testing.T) {
	if got := statusKey("abc"); got != "scraper:run-status:abc" {
		t.Errorf("unexpected key %q", got)
	}
}
