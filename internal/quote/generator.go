// Package quote produces synthetic quote snapshots for instruments.
//
// The generator is a stand-in for a real pricing source: values are drawn
// from fixed ranges and rounded to two decimals. Anything producing one
// Quote per instrument with the same field set is a legal replacement.
package quote

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/tickstream/tickstream/internal/catalog"
)

// DefaultExchange is the exchange reported on every quote unless overridden.
const DefaultExchange = "NASDAQ"

// Quote is one delivery-tick value for a single instrument. Quotes are
// transient: produced fresh on every tick and never stored.
type Quote struct {
	Instrument    catalog.Instrument `json:"ticker"`
	Exchange      string             `json:"exchange"`
	Price         float64            `json:"price"`
	Change        float64            `json:"change"`
	ChangePercent float64            `json:"change_percent"`
	Dividend      float64            `json:"dividend"`
	Yield         float64            `json:"yield"`
	LastTradeTime time.Time          `json:"last_trade_time"`
}

// Generator produces random quotes within documented ranges:
// price [100,300], change [0,200], change_percent [-1,1],
// dividend [0,1], yield [0,2].
type Generator struct {
	exchange string
	now      func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// NewGenerator creates a quote generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		exchange: DefaultExchange,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// WithExchange sets the exchange reported on quotes.
func WithExchange(exchange string) Option {
	return func(g *Generator) {
		g.exchange = exchange
	}
}

// WithSeed makes the generator deterministic.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithClock sets the time source used for LastTradeTime.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// Snapshot returns one Quote per input instrument, in input order.
// An empty input yields an empty snapshot.
func (g *Generator) Snapshot(instruments []catalog.Instrument) []Quote {
	// LastTradeTime carries whole seconds only.
	tradeTime := g.now().Truncate(time.Second)

	quotes := make([]Quote, 0, len(instruments))
	for _, in := range instruments {
		quotes = append(quotes, Quote{
			Instrument:    in,
			Exchange:      g.exchange,
			Price:         g.randomValue(100, 300),
			Change:        g.randomValue(0, 200),
			ChangePercent: g.randomValue(-1, 1),
			Dividend:      g.randomValue(0, 1),
			Yield:         g.randomValue(0, 2),
			LastTradeTime: tradeTime,
		})
	}
	return quotes
}

// randomValue draws a value in [min,max) rounded to two decimals.
func (g *Generator) randomValue(min, max float64) float64 {
	g.mu.Lock()
	f := g.rng.Float64()
	g.mu.Unlock()

	return math.Round((min+f*(max-min))*100) / 100
}
