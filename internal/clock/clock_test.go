package clock

import (
	"testing"
	"time"
)

func TestFixedNow(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.FixedZone("EEST", 3*3600))
	clk := Fixed(at)
	got := clk.Now()
	if !got.Equal(at) {
		t.Fatalf("expected %v, got %v", at, got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
}
