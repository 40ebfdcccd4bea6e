package casestore

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemStore struct {
	mu     sync.Mutex
	nextID uint64
	Cases  map[uint64]Case
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		nextID: 1,
		Cases:  make(map[uint64]Case),
	}
}

func (s *MemStore) Append(ctx context.Context, c *Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextID
	s.nextID++
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.Cases[c.ID] = *c
	return nil
}

// newest first; ties broken by insertion order
func (s *MemStore) sorted(match func(c *Case) bool) []Case {
	out := []Case{}
	for _, c := range s.Cases {
		if match(&c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *MemStore) List(ctx context.Context, guildID string, offset, limit int) ([]Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sorted(func(c *Case) bool { return c.GuildID == guildID })
	if offset >= len(all) {
		return []Case{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *MemStore) Count(ctx context.Context, guildID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, c := range s.Cases {
		if c.GuildID == guildID {
			n++
		}
	}
	return n, nil
}

func (s *MemStore) ListByTarget(ctx context.Context, guildID, targetID, action string) ([]Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(func(c *Case) bool {
		return c.GuildID == guildID && c.TargetID == targetID && (action == "" || c.Action == action)
	}), nil
}

func (s *MemStore) UpdateReason(ctx context.Context, id uint64, reason, editedBy string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Cases[id]
	if !ok {
		return ErrNotFound
	}
	c.Reason = reason
	c.EditedAt = &at
	c.EditedBy = &editedBy
	s.Cases[id] = c
	return nil
}

func (s *MemStore) Delete(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Cases[id]; !ok {
		return ErrNotFound
	}
	delete(s.Cases, id)
	return nil
}
