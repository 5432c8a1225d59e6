package github

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWalkPagesExhaustsSource(t *testing.T) {
	// 3 pages of 100/100/37 items.
	pages := [][]int{make([]int, 100), make([]int, 100), make([]int, 37)}
	next := 0
	for i := range pages {
		for j := range pages[i] {
			pages[i][j] = next
			next++
		}
	}

	fetches := 0
	fetch := func(_ context.Context, cursor string, _ int) (Page[int], error) {
		idx := 0
		if cursor != "" {
			if _, err := fmt.Sscanf(cursor, "page-%d", &idx); err != nil {
				return Page[int]{}, fmt.Errorf("bad cursor %q", cursor)
			}
		}
		fetches++
		return Page[int]{
			Items:   pages[idx],
			Cursor:  fmt.Sprintf("page-%d", idx+1),
			HasNext: idx < len(pages)-1,
		}, nil
	}

	items, err := WalkPages(context.Background(), 100, fetch)
	if err != nil {
		t.Fatalf("WalkPages failed: %v", err)
	}
	if len(items) != 237 {
		t.Errorf("expected 237 items, got %d", len(items))
	}
	if fetches != 3 {
		t.Errorf("expected exactly 3 fetches, got %d", fetches)
	}
	for i, item := range items {
		if item != i {
			t.Fatalf("item %d out of arrival order: got %d", i, item)
		}
	}
}

func TestWalkPagesPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	fetch := func(_ context.Context, cursor string, _ int) (Page[int], error) {
		if cursor == "" {
			return Page[int]{Items: []int{1}, Cursor: "c1", HasNext: true}, nil
		}
		return Page[int]{}, boom
	}

	_, err := WalkPages(context.Background(), 10, fetch)
	if !errors.Is(err, boom) {
		t.Errorf("expected fetch error to propagate, got %v", err)
	}
}

func TestWalkPagesHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WalkPages(ctx, 10, func(context.Context, string, int) (Page[int], error) {
		t.Error("fetch should not run after cancellation")
		return Page[int]{}, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
