package shortener

import "context"

// Repository is the Link Store: persistence for ShortLink records.
type Repository interface {
	// FindByURL returns the record whose OriginalURL equals url exactly.
	// Returns ErrNotFound if no record exists.
	FindByURL(ctx context.Context, url string) (*ShortLink, error)

	// FindByShortID returns the record with the given short identifier.
	// Returns ErrNotFound if no record exists.
	FindByShortID(ctx context.Context, id ShortID) (*ShortLink, error)

	// Insert stores link unless a record for the same OriginalURL exists,
	// in which case the existing record is returned untouched.
	Insert(ctx context.Context, link *ShortLink) (*ShortLink, error)
}
