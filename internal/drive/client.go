// Package drive defines the listing-API collaborator: a small client
// interface, the Google Drive v3 implementation behind it, and the error
// taxonomy the aggregation engine keys its isolation policy on.
package drive

import (
	"context"
	"time"
)

// DefaultPageSize is the listing page size when the caller gives none.
const DefaultPageSize = 1000

// ItemRecord is one wire-level file or folder record, already parsed out
// of the provider's representation.
type ItemRecord struct {
	ID           string
	Name         string
	MimeType     string
	Size         int64
	Parents      []string
	CreatedTime  time.Time
	ModifiedTime time.Time
	OwnedByMe    bool
	Shared       bool
	Starred      bool
	Trashed      bool
	WebViewLink  string
}

// ListPage is one page of listing results. An empty NextPageToken marks
// the last page.
type ListPage struct {
	Records       []ItemRecord
	NextPageToken string
}

// ListOptions controls a listing call.
type ListOptions struct {
	PageSize  int64
	PageToken string
}

// Client is the remote listing collaborator. Implementations must exclude
// trashed items from ListItems.
type Client interface {
	ListItems(ctx context.Context, opts ListOptions) (ListPage, error)
	GetItem(ctx context.Context, id string) (ItemRecord, error)
}

// ClientFactory creates authenticated clients.
type ClientFactory interface {
	NewClient(ctx context.Context) (Client, error)
}
