package protocol

import (
	"sync"
	"time"
)

// TransactionId correlates a response with the request that produced
// it on the same connection. Time is connection-local: seconds elapsed
// since the generator was created, which comfortably fits a uint32 for
// well over a century of continuous connection lifetime.
type TransactionId struct {
	Time uint32 `json:"time"`
	Seq  uint32 `json:"seq"`
}

// TransactionIdGenerator hands out strictly-increasing-modulo-2^32
// TransactionIds for the lifetime of one connection. The zero value is
// not ready for use; call NewTransactionIdGenerator.
type TransactionIdGenerator struct {
	mu        sync.Mutex
	startTime int64
	seq       uint32
}

// NewTransactionIdGenerator starts a generator rooted at the current
// time.
func NewTransactionIdGenerator() *TransactionIdGenerator {
	return &TransactionIdGenerator{startTime: time.Now().Unix()}
}

// Next returns the next TransactionId. Seq wraps silently at 2^32;
// within one connection's lifetime that is far beyond any plausible
// number of outstanding requests.
func (g *TransactionIdGenerator) Next() TransactionId {
	g.mu.Lock()
	defer g.mu.Unlock()

	elapsed := time.Now().Unix() - g.startTime
	id := TransactionId{Time: uint32(elapsed), Seq: g.seq}
	g.seq++
	return id
}

// Seq reports the current sequence counter value, mostly useful for
// tests.
func (g *TransactionIdGenerator) Seq() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}
