package storage

import (
	"context"
	"sort"
)

// StubKV is an in-memory KV for tests.
type StubKV struct {
	data map[string]string
	// FailWrites makes every Set return ErrWriteFailed, for persistence-failure tests.
	FailWrites bool
}

func NewStubKV() *StubKV {
	return &StubKV{data: map[string]string{}}
}

func (s *StubKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok := s.data[key]
	return value, ok, nil
}

func (s *StubKV) Set(ctx context.Context, key string, value string) error {
	if s.FailWrites {
		return ErrWriteFailed
	}
	s.data[key] = value
	return nil
}

func (s *StubKV) Delete(ctx context.Context, key string) error {
	delete(s.data, key)
	return nil
}

func (s *StubKV) Keys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *StubKV) Cleanup() {
	s.data = map[string]string{}
	s.FailWrites = false
}
