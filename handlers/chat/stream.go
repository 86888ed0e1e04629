package chat

import (
	"bufio"
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/puretrustgold/puretrust-api/model"
	"github.com/puretrustgold/puretrust-api/services"
	"github.com/puretrustgold/puretrust-api/utils/response"
	"github.com/puretrustgold/puretrust-api/utils/sse"
)

// keepAliveInterval paces SSE comments during quiet chats so proxies keep
// the connection open
const keepAliveInterval = 25 * time.Second

// StreamMessages handles GET /api/v1/chat/sessions/:id/stream
//
// It bridges one live feed subscription onto an SSE response. Clients treat
// the stream as at-least-once and unordered; after a reconnect they re-fetch
// the transcript instead of assuming the stream was gap-free.
func (h *ChatHandler) StreamMessages(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	if _, err := h.chatService.GetSession(c.Context(), sessionID); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Chat session not found")
		}
		return response.InternalServerError(c, "Failed to load session")
	}

	// Set SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("X-Accel-Buffering", "no") // Disable nginx buffering

	feed := h.feed

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		// The Fiber context is not valid inside the stream writer goroutine
		ctx := context.Background()

		events := make(chan model.ChatMessage, 64)
		sub, err := feed.Subscribe(ctx, sessionID, func(msg model.ChatMessage) {
			select {
			case events <- msg:
			default:
				// Slow consumer; the client reconciles from a transcript
				// re-fetch, so dropping here loses nothing permanently.
			}
		})
		if err != nil {
			sse.SendError(w, err)
			return
		}
		defer sub.Close()

		if err := sse.Send(w, sse.Event{Event: "open", Data: map[string]string{
			"subscription": sub.Name(),
			"session_id":   sessionID,
		}}); err != nil {
			return
		}

		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()

		for {
			select {
			case msg := <-events:
				if err := sse.SendMessage(w, msg.ID, msg); err != nil {
					// Client went away
					return
				}
			case <-keepAlive.C:
				if err := sse.SendKeepAlive(w); err != nil {
					return
				}
			case <-sub.Done():
				if subErr := sub.Err(); subErr != nil {
					sse.SendError(w, subErr)
				}
				return
			}
		}
	})

	return nil
}
