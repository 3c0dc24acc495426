package service

import "fmt"

// WSConfig holds the WebSocket URL base for responses.
type WSConfig struct {
	BaseURL string
}

// WSURL returns the signaling URL for a session (e.g. wss://host/ws/sessions/sessionID).
func (c *WSConfig) WSURL(sessionID string) string {
	if c == nil || c.BaseURL == "" {
		return fmt.Sprintf("/ws/sessions/%s", sessionID)
	}
	base := c.BaseURL
	if base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return fmt.Sprintf("%s/ws/sessions/%s", base, sessionID)
}
