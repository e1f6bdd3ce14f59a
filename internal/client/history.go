package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ansshul10/Chatifyzone07/internal/models"
)

// FetchHistory performs the out-of-band history read for a participant pair.
// This is the reconnect recovery path: after re-registering, the client calls
// it and feeds the result to Conversation.Resync instead of relying on any
// pushes it may have missed while disconnected.
func FetchHistory(baseURL, peerID, myID string) ([]*models.Message, error) {
	u := fmt.Sprintf("%s/api/messages/%s/%s", baseURL, url.PathEscape(peerID), url.PathEscape(myID))
	resp, err := http.Get(u)
	if err != nil {
		return nil, fmt.Errorf("history request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history request returned status %d", resp.StatusCode)
	}

	var messages []*models.Message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, fmt.Errorf("failed to decode history response: %w", err)
	}
	return messages, nil
}
