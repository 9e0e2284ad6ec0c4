// ABOUTME: In-memory collection of schema-less records with a cursor
// ABOUTME: Insert, import and removal with lifecycle events and auto-maintenance

package collection

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nainya/ndstore/pkg/compare"
	"github.com/nainya/ndstore/pkg/record"
	"github.com/nainya/ndstore/pkg/storage"
)

// Collection is an ordered, duplicate-permitting sequence of records.
// It is not safe for concurrent use.
type Collection struct {
	id      uuid.UUID
	records []any
	cursor  int

	cmps   *compare.Registry
	sortBy []string
	defs   []definition

	indexes map[string]*Index
	hashes  map[string]*Hash
	views   map[string]*Collection
	tags    map[string]any
	events  listeners
	update  Update

	store    storage.Store
	observer Observer
	tracer   trace.Tracer
	base     *zerolog.Logger
	log      zerolog.Logger
}

// New creates a collection configured by opts and imports records
func New(opts Options, records ...any) *Collection {
	c := newEmpty(opts.Logger)
	c.update = opts.Update
	c.store = opts.Storage
	c.sortBy = append([]string(nil), opts.SortBy...)
	if opts.Observer != nil {
		c.observer = opts.Observer
	}
	if opts.Tracer != nil {
		c.tracer = opts.Tracer
	}

	for _, dim := range sortedKeys(opts.Comparators) {
		_ = c.RegisterComparator(dim, opts.Comparators[dim])
	}
	for _, name := range sortedKeys(opts.Indexes) {
		_ = c.DefineIndex(name, opts.Indexes[name])
	}
	for _, name := range sortedKeys(opts.Hashes) {
		_ = c.DefineHash(name, opts.Hashes[name])
	}
	for _, name := range sortedKeys(opts.Views) {
		_ = c.DefineView(name, opts.Views[name])
	}
	for label, rec := range opts.Tags {
		c.tags[label] = rec
	}
	for _, fn := range opts.Hooks.Insert {
		c.OnInsert(fn)
	}
	for _, fn := range opts.Hooks.Remove {
		c.OnRemove(fn)
	}

	if err := c.Import(records); err != nil {
		c.log.Error().Err(err).Msg("initial import failed")
	}
	if opts.Cursor != 0 {
		c.cursor = opts.Cursor
	}
	c.observer.ObserveRecords(len(c.records))
	return c
}

func newEmpty(base *zerolog.Logger) *Collection {
	if base == nil {
		nop := zerolog.Nop()
		base = &nop
	}
	id := uuid.New()
	return &Collection{
		id:       id,
		cmps:     mustRegistry(),
		indexes:  make(map[string]*Index),
		hashes:   make(map[string]*Hash),
		views:    make(map[string]*Collection),
		tags:     make(map[string]any),
		observer: nopObserver{},
		tracer:   noop.NewTracerProvider().Tracer("ndstore"),
		base:     base,
		log: base.With().
			Str("component", "collection").
			Str("collection", id.String()).
			Logger(),
	}
}

func mustRegistry() *compare.Registry {
	r, _ := compare.NewRegistry(nil)
	return r
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ID identifies the collection in logs
func (c *Collection) ID() string {
	return c.id.String()
}

// Len returns the number of records
func (c *Collection) Len() int {
	return len(c.records)
}

// Insert appends rec. Nil and scalar values are ignored. Insert listeners
// run synchronously; the first listener error is returned and the record
// stays inserted.
func (c *Collection) Insert(rec any) error {
	if !record.IsStructured(rec) {
		return nil
	}
	c.records = append(c.records, rec)
	if err := c.emitInsert(rec); err != nil {
		return err
	}
	if c.update.Indexes {
		c.indexRecord(rec)
	}
	c.autoUpdate(false)
	return nil
}

// Import inserts each record in order, stopping at the first listener error
func (c *Collection) Import(records []any) error {
	for _, rec := range records {
		if err := c.Insert(rec); err != nil {
			return err
		}
	}
	return nil
}

// Remove discards every record after notifying remove listeners with the
// records being removed. A listener error aborts the removal.
func (c *Collection) Remove() error {
	if len(c.records) == 0 {
		return nil
	}
	snapshot := append([]any(nil), c.records...)
	if err := c.emitRemove(snapshot); err != nil {
		return err
	}
	c.records = nil
	c.autoUpdate(true)
	return nil
}

// Clear discards every record without notifying listeners. It does nothing
// unless confirm is true.
func (c *Collection) Clear(confirm bool) bool {
	if !confirm {
		c.log.Warn().Msg("clear requires confirmation, use Clear(true)")
		return false
	}
	c.records = nil
	c.autoUpdate(true)
	return true
}

// autoUpdate runs the maintenance selected by Update. Index maintenance
// is a full rebuild only when rebuild is set; inserts index incrementally.
func (c *Collection) autoUpdate(rebuild bool) {
	if c.update.Cursor {
		c.cursor = len(c.records) - 1
	}
	if c.update.Sort {
		c.Sort()
	}
	if rebuild && c.update.Indexes {
		c.RebuildIndexes()
	}
	c.observer.ObserveRecords(len(c.records))
}

// Fetch returns a copy of the record sequence
func (c *Collection) Fetch() []any {
	if c == nil {
		return nil
	}
	return append([]any(nil), c.records...)
}

// Breed returns a collection with the same configuration holding records,
// or the current records when records is nil
func (c *Collection) Breed(records []any) *Collection {
	if records == nil {
		records = c.records
	}
	return c.breed(records)
}

func (c *Collection) breed(records []any) *Collection {
	out := c.derive(kindNone)
	for label, rec := range c.tags {
		out.tags[label] = rec
	}
	out.importQuiet(records)
	return out
}

// derive builds an empty collection sharing configuration, without the
// definitions of kind skip. Observers and listeners are not inherited.
func (c *Collection) derive(skip defKind) *Collection {
	out := newEmpty(c.base)
	out.cmps = c.cmps.Clone()
	out.sortBy = c.sortBy
	out.update = c.update
	out.store = c.store
	out.tracer = c.tracer
	for _, d := range c.defs {
		if d.kind != skip {
			out.addDefinition(d)
		}
	}
	return out
}

// importQuiet imports records into a collection that has no listeners yet
func (c *Collection) importQuiet(records []any) {
	if err := c.Import(records); err != nil {
		c.log.Error().Err(err).Msg("import into derived collection failed")
	}
}

func (c *Collection) observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.observer.ObserveOp(op, status, time.Since(start))
}
