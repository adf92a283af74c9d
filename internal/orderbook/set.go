package orderbook

import "github.com/polybasket/polybasket/pkg/types"

// Set holds the per-asset books. It is owned by the coordinator's event loop
// and is not safe for concurrent use; books are created lazily on first event
// and live for the duration of the run.
type Set struct {
	books map[string]*Book
}

// NewSet creates an empty book set.
func NewSet() *Set {
	return &Set{books: make(map[string]*Book)}
}

// Get returns the book for an asset id, creating it on first use.
func (s *Set) Get(assetID string) *Book {
	b, ok := s.books[assetID]
	if !ok {
		b = NewBook()
		s.books[assetID] = b
		BooksTracked.Set(float64(len(s.books)))
	}
	return b
}

// Lookup returns the book for an asset id without creating it.
func (s *Set) Lookup(assetID string) (*Book, bool) {
	b, ok := s.books[assetID]
	return b, ok
}

// Tops returns the current top per asset id, for persistence projection.
func (s *Set) Tops() map[string]types.Top {
	tops := make(map[string]types.Top, len(s.books))
	for assetID, b := range s.books {
		tops[assetID] = b.Top()
	}
	return tops
}

// Len returns the number of books created so far.
func (s *Set) Len() int {
	return len(s.books)
}
