package stream

// Collector is a pass-through accumulator: it never alters the bytes that
// flow through it, only copies them aside for later logging (e.g. the raw
// upstream SSE chunks attached to a RequestLog).
type Collector struct {
	chunks [][]byte
}

// NewCollector constructs an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Observe copies data aside. Safe to call with a slice the caller will
// reuse or mutate afterwards.
func (c *Collector) Observe(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	c.chunks = append(c.chunks, cp)
}

// Chunks returns the ordered list of observed byte segments.
func (c *Collector) Chunks() [][]byte {
	return c.chunks
}
