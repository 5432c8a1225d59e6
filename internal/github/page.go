package github

import "context"

// Page is one page of a cursor-paginated result set. Cursor resumes the
// walk after the last item; HasNext reports whether fetching at Cursor
// would return more.
type Page[T any] struct {
	Items   []T
	Cursor  string
	HasNext bool
}

// PageFetch fetches one page. An empty cursor means the first page.
type PageFetch[T any] func(ctx context.Context, cursor string, size int) (Page[T], error)

// WalkPages drains a paginated source sequentially, preserving arrival
// order. Page N+1 is requested only after page N arrives, since its
// cursor does not exist before then.
func WalkPages[T any](ctx context.Context, size int, fetch PageFetch[T]) ([]T, error) {
	var items []T
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := fetch(ctx, cursor, size)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)

		if !page.HasNext {
			return items, nil
		}
		cursor = page.Cursor
	}
}
