package testutil

import (
	"fmt"
	"sync"
)

// SequenceTokens generates "<prefix>-0001", "<prefix>-0002", ...
//
// Unlike FixedTokens it never runs out, which suits tests that do not care
// how many programs they run.
//
// Thread-safety: SequenceTokens is safe for concurrent use.
type SequenceTokens struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceTokens creates a generator. An empty prefix defaults to "proc".
func NewSequenceTokens(prefix string) *SequenceTokens {
	if prefix == "" {
		prefix = "proc"
	}
	return &SequenceTokens{prefix: prefix}
}

// Generate returns the next token.
func (g *SequenceTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// FixedTokens returns predetermined tokens in order.
//
// Thread-safety: FixedTokens is safe for concurrent use via internal mutex.
type FixedTokens struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedTokens creates a generator that returns tokens in order.
func NewFixedTokens(tokens ...string) *FixedTokens {
	return &FixedTokens{tokens: tokens}
}

// Generate returns the next predetermined token.
//
// Panics if all tokens have been consumed, which means a test ran more
// programs than it declared.
func (g *FixedTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedTokens: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
