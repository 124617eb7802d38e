package node

import "sync/atomic"

// TimerToken identifies a scheduled timeout. The handler that scheduled the
// timeout uses it to recognise the fire-event that comes back later.
type TimerToken uint64

// TokenAllocator issues TimerTokens. Tokens increase monotonically and are
// never reused, even once the timer they identify has fired.
type TokenAllocator struct {
	next atomic.Uint64
}

// NewTokenAllocator returns an allocator whose first token is seed.
func NewTokenAllocator(seed uint64) *TokenAllocator {
	a := &TokenAllocator{}
	a.next.Store(seed)
	return a
}

// Next returns a new token. It is safe for concurrent use.
func (a *TokenAllocator) Next() TimerToken {
	return TimerToken(a.next.Add(1) - 1)
}

// Reset makes seed the next token to be issued. Only tests should need this.
func (a *TokenAllocator) Reset(seed uint64) {
	a.next.Store(seed)
}

var defaultTokens TokenAllocator

// DefaultTokenAllocator returns the process-wide allocator shared by every
// Context that was not given its own.
func DefaultTokenAllocator() *TokenAllocator {
	return &defaultTokens
}

// NextTimerToken draws a token from the process-wide allocator.
func NextTimerToken() TimerToken {
	return defaultTokens.Next()
}

// ResetTimerTokens resets the process-wide allocator.
func ResetTimerTokens(seed uint64) {
	defaultTokens.Reset(seed)
}
