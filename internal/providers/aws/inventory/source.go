// Package inventory reads raw resource records from the AWS Config
// advanced-query API, one page at a time, for a single (account, region)
// pair.
package inventory

import (
	"context"
	"iter"
)

// Page is one page of raw query results. Records are JSON documents in the
// order the service returned them. An empty NextToken marks the last page.
type Page struct {
	Records   []string
	NextToken string
}

// PageSource fetches one page of raw records for an (account, region) pair.
// Pass an empty token to start from the first page.
type PageSource interface {
	FetchPage(ctx context.Context, accountID, region, token string) (Page, error)
}

// Pages returns the lazy page sequence for one (account, region) pair.
// Pages are fetched sequentially as the caller ranges over the sequence and
// each page is yielded once. A failed fetch, or a cancelled context, is
// yielded as (Page{}, err) and ends the sequence. Ranging again starts a new
// query from the first page.
func Pages(ctx context.Context, src PageSource, accountID, region string) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		token := ""
		for {
			if err := ctx.Err(); err != nil {
				yield(Page{}, err)
				return
			}
			page, err := src.FetchPage(ctx, accountID, region, token)
			if err != nil {
				yield(Page{}, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			if page.NextToken == "" {
				return
			}
			token = page.NextToken
		}
	}
}
