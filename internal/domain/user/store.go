package user

import (
	"context"
	"errors"
	"sync"
)

var ErrUserNotFound = errors.New("user not found")

// MemoryStore is a read-mostly in-memory user directory.
type MemoryStore struct {
	mu        sync.RWMutex
	bySubject map[string]*User
}

func NewMemoryStore(users ...*User) *MemoryStore {
	s := &MemoryStore{
		bySubject: make(map[string]*User, len(users)),
	}
	for _, u := range users {
		s.Add(u)
	}
	return s
}

func (s *MemoryStore) Add(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bySubject[u.Subject] = u
}

func (s *MemoryStore) GetBySubject(_ context.Context, subject string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.bySubject[subject]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// ClaimsOf lets the store serve as the claims source for issuance orders.
func (s *MemoryStore) ClaimsOf(subject string) (map[string]any, bool) {
	u, err := s.GetBySubject(context.Background(), subject)
	if err != nil {
		return nil, false
	}
	return u.Claims(), true
}

// SampleUsers returns the dummy records the gateway is seeded with.
func SampleUsers() []*User {
	return []*User{
		{
			Subject:     "1001",
			LoginID:     "john",
			Password:    "john",
			Name:        "John Smith",
			Email:       "john@example.com",
			Address:     &Address{Country: "USA"},
			PhoneNumber: "+1 (425) 555-1212",
		},
		{
			Subject:     "1002",
			LoginID:     "jane",
			Password:    "jane",
			Name:        "Jane Smith",
			Email:       "jane@example.com",
			Address:     &Address{Country: "Chile"},
			PhoneNumber: "+56 (2) 687 2400",
		},
		{
			Subject:     "1003",
			LoginID:     "max",
			Password:    "max",
			Name:        "Max Meier",
			Email:       "max@example.com",
			Address:     &Address{Country: "Germany", Locality: "Berlin", PostalCode: "10115"},
			PhoneNumber: "+49 (30) 210 94-0",
		},
	}
}
