// ABOUTME: Labels bound to specific record references
// ABOUTME: Tags follow the record through reordering

package collection

import (
	"github.com/nainya/ndstore/pkg/errs"
	"github.com/nainya/ndstore/pkg/record"
)

// Tag binds label to the record under the cursor
func (c *Collection) Tag(label string) error {
	return c.TagAt(label, c.cursor)
}

// TagAt binds label to the record at pos
func (c *Collection) TagAt(label string, pos int) error {
	rec, ok := c.Get(pos)
	if !ok {
		err := errs.E(errs.InvalidArgument, "Tag", "position %d out of range [0,%d)", pos, len(c.records))
		c.log.Warn().Err(err).Str("tag", label).Msg("tag rejected")
		return err
	}
	return c.TagRecord(label, rec)
}

// TagRecord binds label to rec, which need not be stored
func (c *Collection) TagRecord(label string, rec any) error {
	if label == "" {
		err := errs.E(errs.InvalidTag, "Tag", "empty label")
		c.log.Warn().Err(err).Msg("tag rejected")
		return err
	}
	if !record.IsStructured(rec) {
		err := errs.E(errs.InvalidTag, "Tag", "label %q bound to a non-record", label)
		c.log.Warn().Err(err).Msg("tag rejected")
		return err
	}
	c.tags[label] = rec
	return nil
}

// ResolveTag returns the record bound to label
func (c *Collection) ResolveTag(label string) (any, bool) {
	rec, ok := c.tags[label]
	return rec, ok
}

// Tags returns the tag labels in sorted order
func (c *Collection) Tags() []string {
	return sortedKeys(c.tags)
}
