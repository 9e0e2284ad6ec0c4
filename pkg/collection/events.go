// ABOUTME: Lifecycle listener registry for insert and remove events
// ABOUTME: Listeners run synchronously in registration order; errors propagate

package collection

import "fmt"

// Event names a lifecycle notification
type Event uint8

const (
	EventInsert Event = iota + 1
	EventRemove
)

func (e Event) String() string {
	switch e {
	case EventInsert:
		return "insert"
	case EventRemove:
		return "remove"
	}
	return fmt.Sprintf("event(%d)", uint8(e))
}

// InsertListener receives each inserted record
type InsertListener func(rec any) error

// RemoveListener receives the records about to be removed
type RemoveListener func(records []any) error

// ListenerID identifies a registered listener for Off
type ListenerID uint64

type insertEntry struct {
	id ListenerID
	fn InsertListener
}

type removeEntry struct {
	id ListenerID
	fn RemoveListener
}

type listeners struct {
	next   ListenerID
	insert []insertEntry
	remove []removeEntry
}

// OnInsert registers fn for insert events
func (c *Collection) OnInsert(fn InsertListener) ListenerID {
	if fn == nil {
		return 0
	}
	c.events.next++
	c.events.insert = append(c.events.insert, insertEntry{id: c.events.next, fn: fn})
	return c.events.next
}

// OnRemove registers fn for remove events
func (c *Collection) OnRemove(fn RemoveListener) ListenerID {
	if fn == nil {
		return 0
	}
	c.events.next++
	c.events.remove = append(c.events.remove, removeEntry{id: c.events.next, fn: fn})
	return c.events.next
}

// Off unregisters the listener with the given id
func (c *Collection) Off(id ListenerID) bool {
	for i, e := range c.events.insert {
		if e.id == id {
			c.events.insert = append(c.events.insert[:i:i], c.events.insert[i+1:]...)
			return true
		}
	}
	for i, e := range c.events.remove {
		if e.id == id {
			c.events.remove = append(c.events.remove[:i:i], c.events.remove[i+1:]...)
			return true
		}
	}
	return false
}

// OffAll unregisters every listener for event
func (c *Collection) OffAll(event Event) bool {
	switch event {
	case EventInsert:
		removed := len(c.events.insert) > 0
		c.events.insert = nil
		return removed
	case EventRemove:
		removed := len(c.events.remove) > 0
		c.events.remove = nil
		return removed
	}
	return false
}

func (c *Collection) emitInsert(rec any) error {
	for _, e := range c.events.insert {
		if err := e.fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collection) emitRemove(records []any) error {
	for _, e := range c.events.remove {
		if err := e.fn(records); err != nil {
			return err
		}
	}
	return nil
}
