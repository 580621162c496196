// Copyright (c) 2026 Jasim Space
// SPDX-License-Identifier: GPL-3.0-or-later

// Package challenge issues the arithmetic challenges the login form
// must answer. Each challenge is single-use and short-lived; bots that
// replay a solved challenge get nothing.
package challenge

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TTL is how long an issued challenge stays answerable.
const TTL = 5 * time.Minute

// Challenge is a pending arithmetic question.
type Challenge struct {
	ID       string `json:"id"`
	Question string `json:"question"`

	answer   int
	issuedAt time.Time
}

// Store issues and verifies single-use challenges.
type Store struct {
	mu      sync.Mutex
	pending map[string]Challenge
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewStore creates a challenge store and starts its cleanup loop.
func NewStore() *Store {
	s := &Store{
		pending: make(map[string]Challenge),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go s.cleanup()
	return s
}

// SetNow overrides the clock, for tests.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Issue creates a new challenge with two small random operands.
func (s *Store) Issue() Challenge {
	a := randomOperand()
	b := randomOperand()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := Challenge{
		ID:       uuid.NewString(),
		Question: formatQuestion(a, b),
		answer:   a + b,
		issuedAt: s.now(),
	}
	s.pending[c.ID] = c
	return c
}

// Verify consumes the challenge and reports whether the answer is
// correct. The challenge is removed regardless of outcome; a wrong
// answer means requesting a fresh one, not retrying the same sum.
func (s *Store) Verify(id string, answer int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.pending[id]
	if !ok {
		return false
	}
	delete(s.pending, id)

	if s.now().Sub(c.issuedAt) > TTL {
		return false
	}
	return answer == c.answer
}

// Pending returns the number of unanswered challenges.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close stops the cleanup loop.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

// cleanup periodically drops expired challenges that were never
// answered.
func (s *Store) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for id, c := range s.pending {
				if now.Sub(c.issuedAt) > TTL {
					delete(s.pending, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

// randomOperand returns an integer in [1, 10].
func randomOperand() int {
	n, err := rand.Int(rand.Reader, big.NewInt(10))
	if err != nil {
		// crypto/rand only fails when the platform's entropy source is
		// broken; a fixed operand keeps login usable.
		return 7
	}
	return int(n.Int64()) + 1
}

func formatQuestion(a, b int) string {
	return fmt.Sprintf("What is %d + %d?", a, b)
}
