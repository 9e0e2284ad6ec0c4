// ABOUTME: Named indexes, hashes and views maintained over the records
// ABOUTME: Definitions share one namespace checked against a fixed reserved list

package collection

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nainya/ndstore/pkg/errs"
	"github.com/nainya/ndstore/pkg/record"
)

// KeyFunc derives the key of a record; ok is false to skip the record
type KeyFunc func(rec any) (key string, ok bool)

// ByDimension keys records by the scalar value at dim
func ByDimension(dim string) KeyFunc {
	return func(rec any) (string, bool) {
		v, ok := record.Get(rec, dim)
		if !ok || v == nil || record.IsStructured(v) {
			return "", false
		}
		return fmt.Sprint(v), true
	}
}

type defKind uint8

const (
	kindNone defKind = iota
	kindIndex
	kindHash
	kindView
)

func (k defKind) String() string {
	switch k {
	case kindIndex:
		return "index"
	case kindHash:
		return "hash"
	case kindView:
		return "view"
	}
	return "none"
}

type definition struct {
	name string
	kind defKind
	fn   KeyFunc
}

// reservedNames are operation and property names that cannot name an
// index, hash or view. Matching is case-insensitive.
var reservedNames = map[string]struct{}{}

func init() {
	for _, name := range []string{
		"and", "breed", "break", "c", "clear", "comparator", "compare", "concat",
		"count", "current", "cursor", "db", "defineindex", "definehash", "defineview",
		"diff", "distinct", "each", "emit", "execute", "exists", "fetch",
		"fetcharray", "fetchkeyarray", "fetchsubobj", "fetchvalues", "filter",
		"first", "foreach", "get", "groupby", "h", "hash", "hooks", "i", "id",
		"import", "index", "init", "insert", "intersect", "join", "keep", "last",
		"len", "length", "limit", "load", "log", "map", "max", "mean", "min",
		"next", "not", "off", "on", "options", "or", "previous", "rebuildindexes",
		"remove", "resolvetag", "reverse", "save", "seek", "select", "shuffle",
		"skim", "sort", "sortby", "split", "stddev", "stringify", "sum", "tag",
		"tags", "update", "view",
	} {
		reservedNames[name] = struct{}{}
	}
}

// IsReserved reports whether name is a reserved operation name
func IsReserved(name string) bool {
	_, ok := reservedNames[strings.ToLower(name)]
	return ok
}

// Index maps keys to the last record inserted with that key
type Index struct {
	name  string
	items map[string]any
}

// Name returns the index name
func (ix *Index) Name() string { return ix.name }

// Get returns the record stored under key
func (ix *Index) Get(key string) (any, bool) {
	rec, ok := ix.items[key]
	return rec, ok
}

// Keys returns the indexed keys in sorted order
func (ix *Index) Keys() []string { return sortedKeys(ix.items) }

// Len returns the number of keys
func (ix *Index) Len() int { return len(ix.items) }

// Hash maps keys to buckets holding every record with that key
type Hash struct {
	name    string
	buckets map[string]*Collection
}

// Name returns the hash name
func (h *Hash) Name() string { return h.name }

// Get returns the bucket for key
func (h *Hash) Get(key string) (*Collection, bool) {
	b, ok := h.buckets[key]
	return b, ok
}

// Keys returns the bucket keys in sorted order
func (h *Hash) Keys() []string { return sortedKeys(h.buckets) }

// Len returns the number of buckets
func (h *Hash) Len() int { return len(h.buckets) }

// DefineIndex registers an index. Existing records are indexed when
// automatic index maintenance is on.
func (c *Collection) DefineIndex(name string, fn KeyFunc) error {
	return c.define("DefineIndex", definition{name: name, kind: kindIndex, fn: fn})
}

// DefineHash registers a hash
func (c *Collection) DefineHash(name string, fn KeyFunc) error {
	return c.define("DefineHash", definition{name: name, kind: kindHash, fn: fn})
}

// DefineView registers a view
func (c *Collection) DefineView(name string, fn KeyFunc) error {
	return c.define("DefineView", definition{name: name, kind: kindView, fn: fn})
}

func (c *Collection) define(op string, d definition) error {
	if err := c.checkName(op, d); err != nil {
		c.log.Error().Err(err).Str("name", d.name).Str("kind", d.kind.String()).Msg("definition rejected")
		return err
	}
	c.addDefinition(d)
	if c.update.Indexes {
		for _, rec := range c.records {
			c.apply(d, rec)
		}
	}
	return nil
}

func (c *Collection) checkName(op string, d definition) error {
	switch {
	case d.name == "":
		return errs.E(errs.InvalidIndexName, op, "name is empty")
	case d.fn == nil:
		return errs.E(errs.InvalidIndexName, op, "no key function for %q", d.name)
	case IsReserved(d.name):
		return errs.E(errs.ReservedName, op, "name %q is reserved", d.name)
	}
	for _, existing := range c.defs {
		if existing.name == d.name {
			return errs.E(errs.ReservedName, op, "name %q is already a %s", d.name, existing.kind)
		}
	}
	return nil
}

func (c *Collection) addDefinition(d definition) {
	c.defs = append(c.defs, d)
	c.resetDefinition(d)
}

func (c *Collection) resetDefinition(d definition) {
	switch d.kind {
	case kindIndex:
		c.indexes[d.name] = &Index{name: d.name, items: make(map[string]any)}
	case kindHash:
		c.hashes[d.name] = &Hash{name: d.name, buckets: make(map[string]*Collection)}
	case kindView:
		c.views[d.name] = c.derive(kindView).alwaysIndexed()
	}
}

func (c *Collection) alwaysIndexed() *Collection {
	c.update.Indexes = true
	return c
}

// Index returns the named index
func (c *Collection) Index(name string) (*Index, bool) {
	ix, ok := c.indexes[name]
	return ix, ok
}

// Hash returns the named hash
func (c *Collection) Hash(name string) (*Hash, bool) {
	h, ok := c.hashes[name]
	return h, ok
}

// View returns the named view
func (c *Collection) View(name string) (*Collection, bool) {
	v, ok := c.views[name]
	return v, ok
}

// Definitions returns the defined index, hash and view names by kind
func (c *Collection) Definitions() map[string][]string {
	out := make(map[string][]string)
	for _, d := range c.defs {
		out[d.kind.String()] = append(out[d.kind.String()], d.name)
	}
	for _, names := range out {
		sort.Strings(names)
	}
	return out
}

// RebuildIndexes resets every index, hash and view and replays all records
func (c *Collection) RebuildIndexes() {
	start := time.Now()
	for _, d := range c.defs {
		c.resetDefinition(d)
	}
	for _, rec := range c.records {
		c.indexRecord(rec)
	}
	c.observer.ObserveRebuild(time.Since(start))
	c.log.Debug().Int("records", len(c.records)).Int("definitions", len(c.defs)).Msg("indexes rebuilt")
}

func (c *Collection) indexRecord(rec any) {
	for _, d := range c.defs {
		c.apply(d, rec)
	}
}

func (c *Collection) apply(d definition, rec any) {
	key, ok := d.fn(rec)
	if !ok {
		return
	}
	switch d.kind {
	case kindIndex:
		c.indexes[d.name].items[key] = rec
	case kindHash:
		h := c.hashes[d.name]
		bucket, exists := h.buckets[key]
		if !exists {
			bucket = c.derive(kindHash).alwaysIndexed()
			h.buckets[key] = bucket
		}
		if err := bucket.Insert(rec); err != nil {
			c.log.Error().Err(err).Str("hash", d.name).Str("key", key).Msg("hash bucket insert failed")
		}
	case kindView:
		if err := c.views[d.name].Insert(rec); err != nil {
			c.log.Error().Err(err).Str("view", d.name).Msg("view insert failed")
		}
	}
}
