package memory

import (
	"context"
	"sync"
	"time"

	hangoutz_errors "hangoutz/pkg/errors"
)

type otpEntry struct {
	hash      string
	expiresAt time.Time
}

// OTPStore keeps hashed one-time codes per phone number until they expire.
type OTPStore struct {
	mu      sync.Mutex
	entries map[string]otpEntry
	now     func() time.Time
}

func NewOTPStore() *OTPStore {
	return &OTPStore{entries: make(map[string]otpEntry), now: time.Now}
}

func (s *OTPStore) Save(ctx context.Context, phone, hash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[phone] = otpEntry{hash: hash, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *OTPStore) Get(ctx context.Context, phone string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[phone]
	if !ok {
		return "", hangoutz_errors.ErrNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, phone)
		return "", hangoutz_errors.ErrNotFound
	}
	return entry.hash, nil
}

func (s *OTPStore) Delete(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, phone)
	return nil
}
