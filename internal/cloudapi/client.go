package cloudapi

import (
	"context"
)

// DeltaFetcher returns one page of delta results. Pass an empty cursor to
// start a full (root) delta; callers that hold a stored cursor pass it to
// resume incrementally. Shape mirrors the corpus's onedrive-go DeltaFetcher.
type DeltaFetcher interface {
	Delta(ctx context.Context, cursor string) (DeltaPage, error)
}

// DeltaPage is one page of raw delta items plus pagination/cursor state.
type DeltaPage struct {
	Items    []Record
	NextLink string // non-empty: more pages to fetch with the same cursor semantics
	Cursor   string // non-empty only on the terminal page: the new resumable cursor
}

// ItemClient performs folder lookup/creation and item moves — the only
// write operations Sift's cloud organizer needs, per spec.md section 4.H.
type ItemClient interface {
	GetItemByPath(ctx context.Context, path string) (itemID string, err error)
	CreateFolder(ctx context.Context, parentID, name string) (itemID string, err error)
	MoveItem(ctx context.Context, itemID, newParentID string) error
}

// TokenSource supplies a always-fresh bearer token, refreshing internally
// when within 5 minutes of expiry.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
