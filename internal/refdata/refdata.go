// Package refdata provides in-memory reference data and a candidate
// universe for the alternatives scan. Production deployments swap these
// for a real feed; the interfaces live with their consumers.
package refdata

import (
	"sync"

	"github.com/riskmind/riskmind/internal/market"
)

// Memory is a mutex-guarded reference-data table keyed by bare symbol.
type Memory struct {
	mu   sync.RWMutex
	refs map[string]market.Reference
}

func NewMemory() *Memory {
	return &Memory{refs: make(map[string]market.Reference)}
}

func (m *Memory) Put(symbol string, ref market.Reference) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs[market.BareSymbol(symbol)] = ref
}

func (m *Memory) Get(symbol string) (market.Reference, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ref, ok := m.refs[symbol]
	return ref, ok
}

// Universe is a static candidate set of ticks plus news headlines.
type Universe struct {
	mu    sync.RWMutex
	ticks []market.Tick
	news  []market.NewsItem
}

func NewUniverse(ticks []market.Tick, news []market.NewsItem) *Universe {
	return &Universe{ticks: ticks, news: news}
}

func (u *Universe) ListTicks() []market.Tick {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]market.Tick, len(u.ticks))
	copy(out, u.ticks)
	return out
}

func (u *Universe) ListNews() []market.NewsItem {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]market.NewsItem, len(u.news))
	copy(out, u.news)
	return out
}

func (u *Universe) AddTick(t market.Tick) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ticks = append(u.ticks, t)
}

func (u *Universe) AddNews(n market.NewsItem) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.news = append(u.news, n)
}
