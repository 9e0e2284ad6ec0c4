// ABOUTME: Cursor navigation over the record sequence
// ABOUTME: Moves that would leave the valid range are reverted

package collection

// Get returns the record at pos
func (c *Collection) Get(pos int) (any, bool) {
	if pos < 0 || pos >= len(c.records) {
		return nil, false
	}
	return c.records[pos], true
}

// Current returns the record under the cursor
func (c *Collection) Current() (any, bool) {
	return c.Get(c.cursor)
}

// Cursor returns the cursor position, which may be invalid
func (c *Collection) Cursor() int {
	return c.cursor
}

// Seek places the cursor at pos. Out of range positions are rejected.
func (c *Collection) Seek(pos int) bool {
	if pos < 0 || pos >= len(c.records) {
		return false
	}
	c.cursor = pos
	return true
}

// Next advances the cursor and returns the record there. At the last
// record the cursor stays put and ok is false.
func (c *Collection) Next() (any, bool) {
	return c.move(1)
}

// Previous moves the cursor back by one
func (c *Collection) Previous() (any, bool) {
	return c.move(-1)
}

func (c *Collection) move(delta int) (any, bool) {
	prev := c.cursor
	c.cursor += delta
	rec, ok := c.Current()
	if !ok {
		c.cursor = prev
	}
	return rec, ok
}

// First moves the cursor to the first record
func (c *Collection) First() (any, bool) {
	c.cursor = 0
	return c.Current()
}

// Last moves the cursor to the last record
func (c *Collection) Last() (any, bool) {
	c.cursor = len(c.records) - 1
	return c.Current()
}
