package memory

import (
	"bytes"
	"context"
	"testing"
)

func TestBlobStorePutObjectCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	payload := []byte("content")
	uri, err := store.PutObject(context.Background(), "reports/report.json", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}
	if uri != "memory://reports/report.json" {
		t.Fatalf("unexpected uri %s", uri)
	}
	payload[0] = 'C'

	obj, ok := store.Get("reports/report.json")
	if !ok {
		t.Fatal("expected object to be stored")
	}
	if string(obj.Data) != "content" {
		t.Fatalf("expected stored copy to be immutable, got %q", obj.Data)
	}
	if obj.ContentType != "application/json" {
		t.Fatalf("unexpected content type %q", obj.ContentType)
	}

	obj.Data[0] = 'X'
	again, _ := store.Get("reports/report.json")
	if string(again.Data) != "content" {
		t.Fatalf("Get() must return a copy, got %q", again.Data)
	}
}

func TestBlobStorePaths(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	for _, path := range []string{"b.csv", "a.json"} {
		if _, err := store.PutObject(context.Background(), path, "", bytes.NewReader(nil)); err != nil {
			t.Fatalf("PutObject(%s) error = %v", path, err)
		}
	}
	got := store.Paths()
	if len(got) != 2 || got[0] != "a.json" || got[1] != "b.csv" {
		t.Fatalf("unexpected paths %v", got)
	}
	if _, ok := store.Get("missing"); ok {
		t.Fatal("expected missing object")
	}
}
