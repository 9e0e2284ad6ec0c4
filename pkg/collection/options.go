// ABOUTME: Construction options for collections
// ABOUTME: Specialized collections are Options values, not subtypes

package collection

import (
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/nainya/ndstore/pkg/compare"
	"github.com/nainya/ndstore/pkg/storage"
)

// Update controls the maintenance run after records are added or removed
type Update struct {
	// Cursor moves the cursor to the last record
	Cursor bool
	// Indexes keeps indexes, hashes and views current
	Indexes bool
	// Sort re-sorts the collection with Sort()
	Sort bool
}

// Hooks are listeners registered at construction
type Hooks struct {
	Insert []InsertListener
	Remove []RemoveListener
}

// Observer receives operation measurements
type Observer interface {
	ObserveOp(op, status string, d time.Duration)
	ObserveRecords(n int)
	ObserveRebuild(d time.Duration)
	ObserveBytes(op string, n int)
}

// Options configures a collection
type Options struct {
	Comparators map[string]compare.Func
	Indexes     map[string]KeyFunc
	Hashes      map[string]KeyFunc
	Views       map[string]KeyFunc
	// SortBy lists the dimensions used by Sort(); empty keeps insertion order
	SortBy []string
	Tags   map[string]any
	// Cursor is the initial cursor position
	Cursor int
	Hooks  Hooks
	Update Update

	// Logger defaults to a disabled logger
	Logger   *zerolog.Logger
	Storage  storage.Store
	Observer Observer
	// Tracer defaults to a no-op tracer
	Tracer trace.Tracer
}

type nopObserver struct{}

func (nopObserver) ObserveOp(string, string, time.Duration) {}
func (nopObserver) ObserveRecords(int)                      {}
func (nopObserver) ObserveRebuild(time.Duration)            {}
func (nopObserver) ObserveBytes(string, int)                {}
