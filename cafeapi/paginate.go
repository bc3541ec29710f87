package cafeapi

import (
	"context"

	"github.com/ray-remotestate/cafedash/models"
)

// PageFunc fetches one page of a listing.
type PageFunc[T any] func(ctx context.Context, page, size int) (*models.Page[T], error)

// Paginate walks a listing from page 1 until the upstream reports no further
// page. Items whose id was already seen on an earlier page are dropped, so a
// listing that shifts between requests never yields the same item twice.
func Paginate[T any](ctx context.Context, size int, id func(T) string, fetch PageFunc[T]) ([]T, error) {
	seen := make(map[string]struct{})
	var all []T
	for page := 1; ; page++ {
		p, err := fetch(ctx, page, size)
		if err != nil {
			return nil, err
		}
		for _, item := range p.Items {
			key := id(item)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			all = append(all, item)
		}
		if !p.HasNext() || len(p.Items) == 0 {
			return all, nil
		}
	}
}
