// Package client implements the client-side reconciliation contract: a
// conversation view that renders provisional messages optimistically under a
// client-generated temporary identity and replaces them wholesale once the
// server acknowledges persistence.
package client

import (
	"sync"

	"github.com/ansshul10/Chatifyzone07/internal/models"
)

// entry is one display slot in the conversation. While provisional it is
// keyed by the temporary id; after reconciliation by the server identity.
type entry struct {
	msg     *models.Message
	pending bool
	failed  bool
}

// Conversation is the client-local view of one direct-message thread.
type Conversation struct {
	mu    sync.Mutex
	order []string          // Display order of keys (temp or persisted ids).
	byID  map[string]*entry // Key -> entry.
	acked map[string]string // Temp id -> persisted id, for duplicate acks.
}

// NewConversation creates an empty conversation view.
func NewConversation() *Conversation {
	return &Conversation{
		byID:  make(map[string]*entry),
		acked: make(map[string]string),
	}
}

// AppendProvisional adds an optimistic local message under its temporary id.
func (c *Conversation) AppendProvisional(tempID string, msg *models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = append(c.order, tempID)
	c.byID[tempID] = &entry{msg: msg, pending: true}
}

// ApplyAck replaces the provisional entry keyed by tempID with the persisted
// message, wholesale rather than field-by-field. Delivery is at-least-once, so
// a duplicate ack for an already reconciled tempID leaves the state unchanged.
func (c *Conversation) ApplyAck(tempID string, saved *models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if persistedID, ok := c.acked[tempID]; ok {
		// Duplicate ack; the slot already carries the authoritative record.
		if e, ok := c.byID[persistedID]; ok {
			e.msg = saved
		}
		return
	}

	e, ok := c.byID[tempID]
	if !ok {
		return
	}
	delete(c.byID, tempID)
	e.msg = saved
	e.pending = false
	c.byID[saved.ID] = e
	c.acked[tempID] = saved.ID

	for i, key := range c.order {
		if key == tempID {
			c.order[i] = saved.ID
			break
		}
	}
}

// ApplyError marks a provisional entry as failed so the UI can offer a retry.
func (c *Conversation) ApplyError(tempID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byID[tempID]; ok && e.pending {
		e.failed = true
	}
}

// Deliver appends an inbound message pushed by the server. Re-delivery of an
// already known identity replaces the record in place.
func (c *Conversation) Deliver(msg *models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byID[msg.ID]; ok {
		e.msg = msg
		return
	}
	c.order = append(c.order, msg.ID)
	c.byID[msg.ID] = &entry{msg: msg}
}

// ApplyUpdate replaces a persisted record after an edit or reaction push.
// Unknown identities are ignored.
func (c *Conversation) ApplyUpdate(msg *models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byID[msg.ID]; ok {
		e.msg = msg
	}
}

// ApplyDelete removes a record by identity. Unknown identities are ignored.
func (c *Conversation) ApplyDelete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[id]; !ok {
		return
	}
	delete(c.byID, id)
	for i, key := range c.order {
		if key == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Resync replaces the whole view with an authoritative history read. Pending
// provisional entries are kept at the tail: they have not been acknowledged
// yet and the history cannot contain them.
func (c *Conversation) Resync(history []*models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var pendingKeys []string
	pending := make(map[string]*entry)
	for key, e := range c.byID {
		if e.pending {
			pending[key] = e
		}
	}
	for _, key := range c.order {
		if _, ok := pending[key]; ok {
			pendingKeys = append(pendingKeys, key)
		}
	}

	c.order = c.order[:0]
	c.byID = make(map[string]*entry)
	for _, msg := range history {
		c.order = append(c.order, msg.ID)
		c.byID[msg.ID] = &entry{msg: msg}
	}
	for _, key := range pendingKeys {
		c.order = append(c.order, key)
		c.byID[key] = pending[key]
	}
}

// Messages returns the conversation in display order.
func (c *Conversation) Messages() []*models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*models.Message, 0, len(c.order))
	for _, key := range c.order {
		if e, ok := c.byID[key]; ok {
			out = append(out, e.msg)
		}
	}
	return out
}

// Failed reports whether the provisional entry for tempID is marked failed.
func (c *Conversation) Failed(tempID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byID[tempID]
	return ok && e.failed
}
