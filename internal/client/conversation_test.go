package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ansshul10/Chatifyzone07/internal/models"
)

func provisional(text string) *models.Message {
	return &models.Message{Sender: "alice", Recipient: "bob", Text: text}
}

func persisted(id, text string) *models.Message {
	return &models.Message{ID: id, Sender: "alice", Recipient: "bob", Text: text}
}

func TestAckReplacesProvisionalWholesale(t *testing.T) {
	c := NewConversation()
	c.AppendProvisional("temp-1", provisional("hi"))

	saved := persisted("srv-1", "hi")
	c.ApplyAck("temp-1", saved)

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	// The slot carries the authoritative record, not a merge.
	assert.Same(t, saved, msgs[0])
}

func TestAckIdempotentUnderDuplicateDelivery(t *testing.T) {
	c := NewConversation()
	c.AppendProvisional("temp-1", provisional("hi"))

	c.ApplyAck("temp-1", persisted("srv-1", "hi"))
	first := c.Messages()

	// Simulated at-least-once duplicate.
	c.ApplyAck("temp-1", persisted("srv-1", "hi"))
	second := c.Messages()

	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[0].Text, second[0].Text)
}

func TestAckPreservesDisplayOrder(t *testing.T) {
	c := NewConversation()
	c.AppendProvisional("temp-1", provisional("first"))
	c.AppendProvisional("temp-2", provisional("second"))

	// Acks may arrive out of submission order.
	c.ApplyAck("temp-2", persisted("srv-2", "second"))
	c.ApplyAck("temp-1", persisted("srv-1", "first"))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Text)
	assert.Equal(t, "second", msgs[1].Text)
}

func TestApplyErrorMarksProvisionalFailed(t *testing.T) {
	c := NewConversation()
	c.AppendProvisional("temp-1", provisional("hi"))

	c.ApplyError("temp-1")
	assert.True(t, c.Failed("temp-1"))

	// An error for an unknown temp id is ignored.
	c.ApplyError("temp-404")
	assert.False(t, c.Failed("temp-404"))
}

func TestDeliverReplacesOnRedelivery(t *testing.T) {
	c := NewConversation()

	c.Deliver(persisted("srv-1", "hi"))
	c.Deliver(persisted("srv-1", "hi"))

	assert.Len(t, c.Messages(), 1)
}

func TestUpdateAndDelete(t *testing.T) {
	c := NewConversation()
	c.Deliver(persisted("srv-1", "hi"))
	c.Deliver(persisted("srv-2", "there"))

	c.ApplyUpdate(persisted("srv-1", "hello"))
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Text)

	c.ApplyDelete("srv-1")
	msgs = c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "srv-2", msgs[0].ID)

	// Deleting an unknown identity is a no-op.
	c.ApplyDelete("srv-404")
	assert.Len(t, c.Messages(), 1)
}

func TestResyncReplacesViewAndKeepsPending(t *testing.T) {
	c := NewConversation()
	c.Deliver(persisted("stale-1", "old view"))
	c.AppendProvisional("temp-1", provisional("unacked"))

	history := []*models.Message{
		persisted("srv-1", "one"),
		persisted("srv-2", "two"),
	}
	c.Resync(history)

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "srv-1", msgs[0].ID)
	assert.Equal(t, "srv-2", msgs[1].ID)
	assert.Equal(t, "unacked", msgs[2].Text)
}
