package fishaudio

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
)

// MaxPageSize is the largest page the model listing accepts.
const MaxPageSize = 100

// PageLister fetches one page of voice models. *Client implements it.
type PageLister interface {
	ListModels(ctx context.Context, query PageQuery) (*ModelPage, error)
}

// FetchAll returns a lazy sequence over voice models starting at page 1.
//
// With returnAll unset only the first page is requested. Otherwise pages are
// requested until the running count reaches the server-reported total or a
// page comes back empty, and no more than total items are yielded. Each
// iteration performs fresh requests; the sequence stops at the first error.
func FetchAll(
	ctx context.Context,
	lister PageLister,
	query PageQuery,
	returnAll bool,
) iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		pageQuery := query
		pageQuery.PageNumber = 1
		emitted := 0

		for {
			page, err := lister.ListModels(ctx, pageQuery)
			if err != nil {
				yield(nil, fmt.Errorf("failed to fetch page %d: %w", pageQuery.PageNumber, err))

				return
			}

			for _, item := range page.Items {
				if returnAll && emitted >= page.Total {
					return
				}

				if !yield(item, nil) {
					return
				}

				emitted++
			}

			if !returnAll || len(page.Items) == 0 || emitted >= page.Total {
				return
			}

			pageQuery.PageNumber++
		}
	}
}
