package catalog

// Instrument is a tradable entity with a stable numeric id. The wire
// representation uses "name" for the symbol, matching the client protocol.
type Instrument struct {
	ID     int    `json:"id"`
	Symbol string `json:"name"`
}

// Catalog is the immutable set of instruments known to the process.
// It is built once at startup and never mutated afterwards.
type Catalog struct {
	instruments []Instrument
	byID        map[int]Instrument
}

// New builds a catalog from the given instruments, preserving their order.
func New(instruments []Instrument) *Catalog {
	c := &Catalog{
		instruments: make([]Instrument, len(instruments)),
		byID:        make(map[int]Instrument, len(instruments)),
	}
	copy(c.instruments, instruments)
	for _, in := range c.instruments {
		c.byID[in.ID] = in
	}
	return c
}

// Default returns the built-in reference catalog.
func Default() *Catalog {
	return New([]Instrument{
		{ID: 1, Symbol: "AAPL"},  // Apple
		{ID: 2, Symbol: "GOOGL"}, // Alphabet
		{ID: 3, Symbol: "MSFT"},  // Microsoft
		{ID: 4, Symbol: "AMZN"},  // Amazon
		{ID: 5, Symbol: "FB"},    // Facebook
		{ID: 6, Symbol: "TSLA"},  // Tesla
	})
}

// All returns every instrument in catalog order.
func (c *Catalog) All() []Instrument {
	out := make([]Instrument, len(c.instruments))
	copy(out, c.instruments)
	return out
}

// Get returns the instrument with the given id.
func (c *Catalog) Get(id int) (Instrument, bool) {
	in, ok := c.byID[id]
	return in, ok
}

// Resolve maps instrument ids to instruments, keeping input order.
// Unknown ids are dropped silently.
func (c *Catalog) Resolve(ids []int) []Instrument {
	out := make([]Instrument, 0, len(ids))
	for _, id := range ids {
		if in, ok := c.byID[id]; ok {
			out = append(out, in)
		}
	}
	return out
}

// Len returns the number of instruments in the catalog.
func (c *Catalog) Len() int {
	return len(c.instruments)
}
