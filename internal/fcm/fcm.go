// internal/fcm/fcm.go
package fcm

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

// FCM SendEach limit.
const batchSize = 500

type Client struct {
	client *messaging.Client
}

func NewClient(ctx context.Context, app *firebase.App) (*Client, error) {
	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("messaging client init failed: %w", err)
	}
	return &Client{client: messagingClient}, nil
}

// Notification is a push addressed to every device of one principal.
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// BuildMessages expands n into one message per device token.
func BuildMessages(tokens []string, n Notification) []*messaging.Message {
	badge := 1
	messages := make([]*messaging.Message, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: n.Title,
				Body:  n.Body,
			},
			Data: n.Data,
			APNS: &messaging.APNSConfig{
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{
						Sound: "default",
						Badge: &badge,
					},
				},
			},
			Android: &messaging.AndroidConfig{
				Notification: &messaging.AndroidNotification{
					Sound: "default",
				},
				Priority: "high",
			},
		})
	}
	return messages
}

// SendToTokens pushes n to every token. Per-token failures are logged, not
// returned; stale tokens are reported back so callers can prune them.
func (c *Client) SendToTokens(ctx context.Context, tokens []string, n Notification) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	messages := BuildMessages(tokens, n)
	var stale []string
	for i := 0; i < len(messages); i += batchSize {
		end := i + batchSize
		if end > len(messages) {
			end = len(messages)
		}

		resp, err := c.client.SendEach(ctx, messages[i:end])
		if err != nil {
			return stale, fmt.Errorf("FCM batch[%d:%d] failed: %w", i, end, err)
		}
		for j, r := range resp.Responses {
			if r.Success {
				continue
			}
			log.Printf("⚠️ [FCM] token %s (idx %d in batch %d) failed: %v", MaskToken(tokens[i+j]), j, i, r.Error)
			if messaging.IsUnregistered(r.Error) {
				stale = append(stale, tokens[i+j])
			}
		}
		log.Printf("✅ [FCM] batch[%d:%d] sent: %d ok, %d failed", i, end, resp.SuccessCount, resp.FailureCount)
	}
	return stale, nil
}

// MaskToken hides all but last 6 chars for logging safety.
func MaskToken(token string) string {
	if len(token) <= 6 {
		return token
	}
	return "..." + token[len(token)-6:]
}
