package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/loanbot/internal/chat"
	"github.com/Veraticus/loanbot/internal/common"
)

// Sessions indexes open chats by their current session id.
// Turns on one chat are serialized by the chat itself.
type Sessions struct {
	chats map[string]*chat.Chat
	keys  map[*chat.Chat]string
	mu    sync.RWMutex
}

// NewSessions returns an empty index.
func NewSessions() *Sessions {
	return &Sessions{
		chats: make(map[string]*chat.Chat),
		keys:  make(map[*chat.Chat]string),
	}
}

// Add indexes c under its current id.
func (s *Sessions) Add(c *chat.Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexLocked(c)
}

// indexLocked moves c from its previous key to its current id.
func (s *Sessions) indexLocked(c *chat.Chat) {
	if old, ok := s.keys[c]; ok {
		delete(s.chats, old)
	}
	id := c.ID()
	s.chats[id] = c
	s.keys[c] = id
}

// Get looks up a chat.
func (s *Sessions) Get(id string) (*chat.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	return c, nil
}

// Reset restarts the chat stored under id and re-indexes it under its new id.
// A failed reset leaves the chat indexed under id.
func (s *Sessions) Reset(ctx context.Context, id string) (*chat.Chat, error) {
	c, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := c.Reset(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[c]; !ok {
		// Removed while resetting.
		return nil, fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	s.indexLocked(c)
	return c, nil
}

// Remove closes and forgets the chat stored under id.
func (s *Sessions) Remove(id string) error {
	s.mu.Lock()
	c, ok := s.chats[id]
	delete(s.chats, id)
	delete(s.keys, c)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	c.Close()
	return nil
}

// Len returns the number of open chats.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chats)
}

// CloseAll closes every chat and empties the index.
func (s *Sessions) CloseAll() int {
	s.mu.Lock()
	chats := s.chats
	s.chats = make(map[string]*chat.Chat)
	s.keys = make(map[*chat.Chat]string)
	s.mu.Unlock()

	for _, c := range chats {
		c.Close()
	}
	return len(chats)
}
