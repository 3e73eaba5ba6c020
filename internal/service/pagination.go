package service

import (
	"context"

	"testcracker/internal/repository"
)

type lister[T any] interface {
	FindMany(ctx context.Context, q repository.Query) ([]T, error)
	Count(ctx context.Context, where []repository.Filter) (int64, error)
}

// Page is one slice of a list. NextCursor is the id of the first record of
// the following page, empty on the last page.
type Page[T any] struct {
	List       []T
	Total      int64
	NextCursor string
}

// paginate reads one extra row to learn whether another page follows.
func paginate[T any](ctx context.Context, store lister[T], q repository.Query, idOf func(*T) string) (*Page[T], error) {
	take := q.Take
	if take > 0 {
		q.Take = take + 1
	}
	list, err := store.FindMany(ctx, q)
	if err != nil {
		return nil, err
	}
	total, err := store.Count(ctx, q.Where)
	if err != nil {
		return nil, err
	}

	page := &Page[T]{List: list, Total: total}
	if take > 0 && len(list) > take {
		page.NextCursor = idOf(&list[take])
		page.List = list[:take]
	}
	if page.List == nil {
		page.List = []T{}
	}
	return page, nil
}
