package core

import (
	"sync"
	"time"
)

// Conversation is an ordered, append-only message log owned by exactly one
// agent. It is safe for concurrent access.
//
// Contract:
//   - Add appends and updates the Updated timestamp
//   - Clear drops everything except system messages
//   - Messages returns a defensive copy to avoid external mutation
//   - an agent reset replaces the whole Conversation (fresh id), it does not
//     mutate one in place
type Conversation struct {
	id      string
	created time.Time
	updated time.Time

	mu       sync.RWMutex
	messages []Message
}

// NewConversation creates an empty conversation with a fresh identifier.
func NewConversation() *Conversation {
	now := time.Now().UTC()
	return &Conversation{id: NewID(), created: now, updated: now}
}

// ID returns the stable conversation identifier.
func (c *Conversation) ID() string { return c.id }

// Created returns the creation timestamp.
func (c *Conversation) Created() time.Time { return c.created }

// Add appends a message to the conversation.
func (c *Conversation) Add(msgs ...Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msgs...)
	c.updated = time.Now().UTC()
}

// Clear removes all messages except system messages.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.messages[:0]
	for _, m := range c.messages {
		if m.Role == RoleSystem {
			kept = append(kept, m)
		}
	}
	c.messages = kept
	c.updated = time.Now().UTC()
}

// Messages returns a defensive copy of the message log.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Last returns the most recent message and whether one exists.
func (c *Conversation) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Len returns the number of messages in the log.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}
