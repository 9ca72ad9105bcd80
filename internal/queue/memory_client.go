package queue

import (
	"context"
	"sync"
)

// MemoryClient keeps sent messages in memory. Err, when set, fails every Send.
type MemoryClient struct {
	mu   sync.Mutex
	msgs []Message
	Err  error
}

// Send records msg unless Err is set.
func (c *MemoryClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

// Messages returns a copy of everything sent so far.
func (c *MemoryClient) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

var _ Client = (*MemoryClient)(nil)
