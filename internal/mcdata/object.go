package mcdata

// ObjectCache serves branches that persist exactly one object per event,
// such as the MC event header. Entry i holds the object of event i.
type ObjectCache[T any] struct {
	c *Cache[T]
}

// NewObjectCache wraps a collection cache whose entries hold one object each.
func NewObjectCache[T any](c *Cache[T]) *ObjectCache[T] {
	return &ObjectCache[T]{c: c}
}

// Get returns the object of event in slot file.
func (o *ObjectCache[T]) Get(file, event int) (T, bool) {
	return o.c.Get(file, event, 0)
}

func (o *ObjectCache[T]) Cache() *Cache[T] { return o.c }
