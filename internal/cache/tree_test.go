package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/repoatlas/repoatlas/internal/model"
)

func TestNilClientIsPassThrough(t *testing.T) {
	c := NewTreeCache(nil, "", 0)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "abc"); ok || err != nil {
		t.Errorf("Get on a nil client: ok=%v err=%v, want miss", ok, err)
	}
	if err := c.Put(ctx, "abc", []model.TreeEntry{{Path: "go.mod"}}); err != nil {
		t.Errorf("Put on a nil client should be a no-op, got %v", err)
	}
}

func TestFetchFallsBackOnMiss(t *testing.T) {
	c := NewTreeCache(nil, "", 0)

	calls := 0
	want := []model.TreeEntry{{Path: "go.mod", Type: "blob", Size: 120}}
	got, err := c.Fetch(context.Background(), "abc", func(context.Context) ([]model.TreeEntry, error) {
		calls++
		return want, nil
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 fallback call, got %d", calls)
	}
	if len(got) != 1 || got[0].Path != "go.mod" {
		t.Errorf("unexpected entries: %+v", got)
	}
}

func TestFetchPropagatesFallbackError(t *testing.T) {
	c := NewTreeCache(nil, "", 0)

	boom := errors.New("upstream down")
	_, err := c.Fetch(context.Background(), "abc", func(context.Context) ([]model.TreeEntry, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected the fallback error, got %v", err)
	}
}
