package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
)

const gmailUser = "me"

// GmailService wraps the Gmail API for the operations the pipeline needs:
// listing labeled messages, reading bodies, sending raw RFC-5322 mail and
// swapping labels.
type GmailService struct {
	svc    *gmail.Service
	logger *zap.Logger
}

// NewGmailService creates a new Gmail wrapper
func NewGmailService(svc *gmail.Service, logger *zap.Logger) *GmailService {
	return &GmailService{svc: svc, logger: logger}
}

// ListMessageIDs returns the ids of messages matching the given query
func (g *GmailService) ListMessageIDs(ctx context.Context, query string) ([]string, error) {
	resp, err := g.svc.Users.Messages.List(gmailUser).Q(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}

	g.logger.Debug("Listed mailbox messages",
		zap.String("query", query),
		zap.Int("count", len(ids)))

	return ids, nil
}

// MessageBody fetches a message and returns its decoded plain-text body.
// Plain messages carry the body directly; multipart messages carry it in
// the first part.
func (g *GmailService) MessageBody(ctx context.Context, messageID string) (string, error) {
	msg, err := g.svc.Users.Messages.Get(gmailUser, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get message %s: %w", messageID, err)
	}

	var data string
	if msg.Payload.MimeType == "text/plain" {
		data = msg.Payload.Body.Data
	} else if len(msg.Payload.Parts) > 0 {
		data = msg.Payload.Parts[0].Body.Data
	}
	if data == "" {
		return "", fmt.Errorf("message %s has no readable body", messageID)
	}

	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", fmt.Errorf("failed to decode message body: %w", err)
	}

	return string(decoded), nil
}

// SendRaw sends a raw RFC-5322 message
func (g *GmailService) SendRaw(ctx context.Context, raw []byte) error {
	msg := &gmail.Message{Raw: base64.RawURLEncoding.EncodeToString(raw)}
	if _, err := g.svc.Users.Messages.Send(gmailUser, msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SwapLabels adds one label to a message and removes another
func (g *GmailService) SwapLabels(ctx context.Context, messageID, addLabelID, removeLabelID string) error {
	req := &gmail.ModifyMessageRequest{
		AddLabelIds:    []string{addLabelID},
		RemoveLabelIds: []string{removeLabelID},
	}
	if _, err := g.svc.Users.Messages.Modify(gmailUser, messageID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to modify labels on message %s: %w", messageID, err)
	}

	g.logger.Debug("Swapped message labels",
		zap.String("message_id", messageID),
		zap.String("added", addLabelID),
		zap.String("removed", removeLabelID))

	return nil
}
