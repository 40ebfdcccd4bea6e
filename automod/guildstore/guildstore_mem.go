package guildstore

import (
	"context"
	"encoding/json"
	"sync"
)

// In-process store. Documents are deep-copied on the way in and out, so callers never share state with the store.
type MemStore struct {
	mu   sync.Mutex
	Data map[string][]byte
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		Data: make(map[string][]byte),
	}
}

func (s *MemStore) GetGuild(ctx context.Context, guildID string) (*GuildDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.Data[guildID]
	if !ok {
		return nil, nil
	}
	var doc GuildDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *MemStore) Update(ctx context.Context, guildID string, fn func(doc *GuildDoc) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := newGuildDoc(guildID)
	if raw, ok := s.Data[guildID]; ok {
		if err := json.Unmarshal(raw, doc); err != nil {
			return err
		}
	}
	if err := fn(doc); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.Data[guildID] = raw
	return nil
}
