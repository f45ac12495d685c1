// Package order implements the in-flight order aggregates of the point of
// sale: draft building, payment capture, totals and the finalize-once
// lifecycle that hands a settled order to the push queue.
package order

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Session identifies one cashier login at one register and allocates the
// per-session order sequence numbers that make order uids unique.
type Session struct {
	ID          int
	Name        string
	UserID      int
	UserName    string
	LoginNumber int

	mu       sync.Mutex
	sequence int
}

// NewSession creates a session whose next sequence number is 1.
func NewSession(id, userID, loginNumber int) *Session {
	return &Session{ID: id, UserID: userID, LoginNumber: loginNumber, sequence: 1}
}

// NextSequence hands out the next order sequence number.
func (s *Session) NextSequence() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.sequence
	s.sequence++
	return n
}

// NextUID allocates a fresh order uid:
// a five digit session id, a three digit login number and a four digit
// sequence, dash separated.
func (s *Session) NextUID() string {
	return FormatUID(s.ID, s.LoginNumber, s.NextSequence())
}

// AdvancePast bumps the sequence beyond the one embedded in uid, so uids
// restored from disk are never reissued. Malformed uids are ignored.
func (s *Session) AdvancePast(uid string) {
	_, _, seq, err := ParseUID(uid)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq >= s.sequence {
		s.sequence = seq + 1
	}
}

// FormatUID builds the canonical order uid.
func FormatUID(sessionID, loginNumber, sequence int) string {
	return fmt.Sprintf("%05d-%03d-%04d", sessionID, loginNumber, sequence)
}

// ParseUID splits an order uid into its parts.
func ParseUID(uid string) (sessionID, loginNumber, sequence int, err error) {
	parts := strings.Split(uid, "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("malformed order uid %q", uid)
	}
	sessionID, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("malformed order uid %q", uid)
	}
	loginNumber, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("malformed order uid %q", uid)
	}
	sequence, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("malformed order uid %q", uid)
	}
	return sessionID, loginNumber, sequence, nil
}
