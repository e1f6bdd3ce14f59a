package ws

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ansshul10/Chatifyzone07/internal/analytics"
	"github.com/ansshul10/Chatifyzone07/internal/metrics"
	"github.com/ansshul10/Chatifyzone07/internal/models"
	"github.com/ansshul10/Chatifyzone07/internal/presence"
	"github.com/ansshul10/Chatifyzone07/internal/store"
)

const defaultTypingWindow = 10 * time.Second

// Hub routes events between connection sessions, the presence registry and
// the message store. Sessions never talk to each other directly; everything
// goes through here.
type Hub struct {
	registry  *presence.Registry
	store     *store.Store
	analytics *analytics.Recorder

	// All open sessions, registered or not. Presence snapshots go to every
	// one of them.
	mu      sync.RWMutex
	clients map[*Client]bool

	// Active typing pairs for the server-side watchdog:
	// sender -> recipient -> last typing signal.
	typingMu sync.Mutex
	typing   map[string]map[string]time.Time

	typingWindow time.Duration
	done         chan struct{}
	closeOnce    sync.Once
}

// NewHub creates a hub. typingWindow bounds how long a typing indicator may
// outlive its last signal before the watchdog clears it; zero selects the
// default.
func NewHub(st *store.Store, rec *analytics.Recorder, typingWindow time.Duration) *Hub {
	if typingWindow <= 0 {
		typingWindow = defaultTypingWindow
	}
	return &Hub{
		registry:     presence.NewRegistry(),
		store:        st,
		analytics:    rec,
		clients:      make(map[*Client]bool),
		typing:       make(map[string]map[string]time.Time),
		typingWindow: typingWindow,
		done:         make(chan struct{}),
	}
}

// Run drives the typing watchdog until Close is called.
func (h *Hub) Run() {
	ticker := time.NewTicker(h.typingWindow / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.sweepTyping()
		case <-h.done:
			return
		}
	}
}

// Close stops the watchdog.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// OnlineUsers returns the sorted set of currently reachable user ids.
func (h *Hub) OnlineUsers() []string {
	return h.registry.Online()
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	metrics.ActiveConnections.Inc()
}

// dropClient runs the disconnect path: guarded unregister, fire-and-forget
// analytics, typing cleanup, presence rebroadcast.
func (h *Hub) dropClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.mu.Unlock()
	metrics.ActiveConnections.Dec()

	userID := c.UserID()
	if userID == "" {
		return
	}

	elapsed := time.Since(c.connectedAt)
	go h.analytics.RecordSession(userID, elapsed)

	if h.registry.Unregister(userID, c) {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"session": elapsed.Round(time.Second),
		}).Info("user disconnected")
		h.clearTyping(userID)
		h.broadcastPresence()
	}
}

// handleEvent dispatches one inbound event. It runs on the session's read
// goroutine, so handlers for different connections execute concurrently.
func (h *Hub) handleEvent(c *Client, ev *Event) {
	if ev.Type == EventRegister {
		h.handleRegister(c, ev)
		return
	}

	// Everything else needs a bound identity to attribute the event to.
	if c.UserID() == "" {
		logrus.WithField("event", ev.Type).Debug("ignoring event from unregistered connection")
		return
	}

	switch ev.Type {
	case EventSendMessage:
		h.handleSend(c, ev)
	case EventEditMessage:
		h.handleEdit(c, ev)
	case EventReactMessage:
		h.handleReact(c, ev)
	case EventDeleteMessage:
		h.handleDelete(c, ev)
	case EventTyping:
		h.handleTyping(c, ev, true)
	case EventStopTyping:
		h.handleTyping(c, ev, false)
	case EventMessagesRead:
		h.handleMessagesRead(c, ev)
	default:
		logrus.WithField("event", ev.Type).Warn("unknown event type")
	}
}

func (h *Hub) handleRegister(c *Client, ev *Event) {
	var d RegisterData
	if err := ev.ParseData(&d); err != nil || d.UserID == "" {
		logrus.WithError(err).Warn("malformed register event")
		return
	}

	c.setUserID(d.UserID)
	if prev := h.registry.Register(d.UserID, c); prev != nil {
		// Last registration wins; tear down the superseded session.
		prev.(*Client).close()
	}

	logrus.WithField("user_id", d.UserID).Info("user registered")
	h.broadcastPresence()
}

func (h *Hub) handleSend(c *Client, ev *Event) {
	var d SendMessageData
	if err := ev.ParseData(&d); err != nil {
		logrus.WithError(err).Warn("malformed send_message event")
		return
	}

	msg := &models.Message{
		Sender:         c.UserID(),
		Recipient:      d.Recipient,
		Text:           d.Text,
		IsEncrypted:    d.IsEncrypted,
		DisappearingIn: d.DisappearingIn,
	}

	if err := h.store.SaveMessage(msg); err != nil {
		metrics.MessagesFailed.Inc()
		logrus.WithError(err).Error("message persistence failed")
		c.sendEvent(EventMessageError, MessageErrorData{TempID: d.TempID, Error: "failed to save message"})
		return
	}
	metrics.MessagesSent.Inc()

	// Persistence succeeded; the ack must reach the sender even if the
	// recipient is offline.
	c.sendEvent(EventSendAck, SendAckData{TempID: d.TempID, Message: msg})

	if peer, ok := h.lookup(d.Recipient); ok {
		peer.sendEvent(EventDeliverMessage, msg)
		metrics.MessagesDelivered.Inc()
	}
}

func (h *Hub) handleEdit(c *Client, ev *Event) {
	var d EditMessageData
	if err := ev.ParseData(&d); err != nil {
		logrus.WithError(err).Warn("malformed edit_message event")
		return
	}

	updated, err := h.store.UpdateText(d.MessageID, d.Text)
	if err != nil {
		logrus.WithError(err).Error("message edit failed")
		return
	}
	if updated == nil {
		// Already deleted; expected under concurrent edit/delete.
		return
	}
	h.pushToBoth(c, d.Recipient, EventMessageUpdated, updated)
}

func (h *Hub) handleReact(c *Client, ev *Event) {
	var d ReactMessageData
	if err := ev.ParseData(&d); err != nil {
		logrus.WithError(err).Warn("malformed react_message event")
		return
	}

	updated, err := h.store.AppendReaction(d.MessageID, d.Emoji)
	if err != nil {
		logrus.WithError(err).Error("reaction append failed")
		return
	}
	if updated == nil {
		return
	}
	h.pushToBoth(c, d.Recipient, EventMessageUpdated, updated)
}

func (h *Hub) handleDelete(c *Client, ev *Event) {
	var d DeleteMessageData
	if err := ev.ParseData(&d); err != nil {
		logrus.WithError(err).Warn("malformed delete_message event")
		return
	}

	deleted, err := h.store.DeleteMessage(d.MessageID)
	if err != nil {
		logrus.WithError(err).Error("message delete failed")
		return
	}
	if !deleted {
		return
	}
	h.pushToBoth(c, d.Recipient, EventMessageDeleted, MessageDeletedData{MessageID: d.MessageID})
}

func (h *Hub) handleTyping(c *Client, ev *Event, active bool) {
	var d TypingData
	if err := ev.ParseData(&d); err != nil {
		logrus.WithError(err).Warn("malformed typing event")
		return
	}

	sender := c.UserID()
	if active {
		h.trackTyping(sender, d.Recipient)
	} else {
		h.untrackTyping(sender, d.Recipient)
	}

	relay := EventUserTyping
	if !active {
		relay = EventUserStopTyping
	}
	if peer, ok := h.lookup(d.Recipient); ok {
		peer.sendEvent(relay, UserTypingData{UserID: sender})
	}
}

func (h *Hub) handleMessagesRead(c *Client, ev *Event) {
	var d MessagesReadData
	if err := ev.ParseData(&d); err != nil {
		logrus.WithError(err).Warn("malformed messages_read event")
		return
	}

	// Only messages actually addressed to the caller flip; the rest are
	// silently excluded rather than errored.
	flipped, err := h.store.MarkRead(d.MessageIDs, c.UserID())
	if err != nil {
		logrus.WithError(err).Error("read receipt update failed")
		return
	}
	if len(flipped) == 0 {
		return
	}

	// One aggregate notice, not one per message.
	if peer, ok := h.lookup(d.Recipient); ok {
		peer.sendEvent(EventMessagesReadUpdate, MessagesReadUpdateData{
			MessageIDs: flipped,
			ReadBy:     c.UserID(),
		})
	}
}

// pushToBoth delivers a mutation result to the acting session and, if
// reachable, to the counterpart.
func (h *Hub) pushToBoth(c *Client, counterpart string, t EventType, data interface{}) {
	c.sendEvent(t, data)
	if peer, ok := h.lookup(counterpart); ok && peer != c {
		peer.sendEvent(t, data)
	}
}

func (h *Hub) lookup(userID string) (*Client, bool) {
	conn, ok := h.registry.Lookup(userID)
	if !ok {
		return nil, false
	}
	return conn.(*Client), true
}

// broadcastPresence pushes the full reachable-set snapshot to every open
// session, including unregistered ones.
func (h *Hub) broadcastPresence() {
	online := h.registry.Online()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.sendEvent(EventPresenceUpdate, online)
	}
}

func (h *Hub) trackTyping(sender, recipient string) {
	h.typingMu.Lock()
	defer h.typingMu.Unlock()

	if h.typing[sender] == nil {
		h.typing[sender] = make(map[string]time.Time)
	}
	h.typing[sender][recipient] = time.Now()
}

func (h *Hub) untrackTyping(sender, recipient string) {
	h.typingMu.Lock()
	defer h.typingMu.Unlock()

	if partners, ok := h.typing[sender]; ok {
		delete(partners, recipient)
		if len(partners) == 0 {
			delete(h.typing, sender)
		}
	}
}

// clearTyping removes every typing pair for a departing sender and tells the
// affected recipients to drop their indicators.
func (h *Hub) clearTyping(sender string) {
	h.typingMu.Lock()
	partners := h.typing[sender]
	delete(h.typing, sender)
	h.typingMu.Unlock()

	for recipient := range partners {
		if peer, ok := h.lookup(recipient); ok {
			peer.sendEvent(EventUserStopTyping, UserTypingData{UserID: sender})
		}
	}
}

// sweepTyping expires typing pairs that have outlived the inactivity window.
// The client normally emits stop_typing itself; this watchdog only covers
// abrupt disconnects and lost signals.
func (h *Hub) sweepTyping() {
	type pair struct{ sender, recipient string }
	var expired []pair

	h.typingMu.Lock()
	now := time.Now()
	for sender, partners := range h.typing {
		for recipient, last := range partners {
			if now.Sub(last) > h.typingWindow {
				delete(partners, recipient)
				expired = append(expired, pair{sender, recipient})
			}
		}
		if len(partners) == 0 {
			delete(h.typing, sender)
		}
	}
	h.typingMu.Unlock()

	for _, p := range expired {
		if peer, ok := h.lookup(p.recipient); ok {
			peer.sendEvent(EventUserStopTyping, UserTypingData{UserID: p.sender})
		}
	}
}
