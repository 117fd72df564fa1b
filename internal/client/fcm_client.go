package client

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// multicastLimit is the most tokens a single multicast request accepts.
const multicastLimit = 500

// PushMessage is a device notification.
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// PushSender delivers a message to device tokens. It returns the tokens the provider
// no longer recognizes so the caller can drop them.
type PushSender interface {
	SendToTokens(ctx context.Context, tokens []string, msg PushMessage) (invalid []string, err error)
}

type FCMClient struct {
	messaging *messaging.Client
	logger    *zap.Logger
}

// NewFCMClient initializes a Firebase app from a service account file.
func NewFCMClient(ctx context.Context, credentialsFile string, logger *zap.Logger) (*FCMClient, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("firebase credentials file is required")
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	logger.Info("Firebase messaging client initialized")
	return &FCMClient{messaging: client, logger: logger}, nil
}

func (c *FCMClient) SendToTokens(ctx context.Context, tokens []string, msg PushMessage) ([]string, error) {
	var invalid []string
	for _, batch := range chunkTokens(tokens, multicastLimit) {
		resp, err := c.messaging.SendMulticast(ctx, &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: msg.Data,
		})
		if err != nil {
			return invalid, fmt.Errorf("failed to send push notification: %w", err)
		}

		for i, r := range resp.Responses {
			if r.Success {
				continue
			}
			if messaging.IsRegistrationTokenNotRegistered(r.Error) || messaging.IsInvalidArgument(r.Error) {
				invalid = append(invalid, batch[i])
				continue
			}
			c.logger.Warn("Push send failed",
				zap.String("token_suffix", tokenSuffix(batch[i])),
				zap.Error(r.Error),
			)
		}
	}
	return invalid, nil
}

func chunkTokens(tokens []string, size int) [][]string {
	var out [][]string
	for len(tokens) > size {
		out = append(out, tokens[:size:size])
		tokens = tokens[size:]
	}
	if len(tokens) > 0 {
		out = append(out, tokens)
	}
	return out
}

func tokenSuffix(token string) string {
	if len(token) <= 6 {
		return token
	}
	return token[len(token)-6:]
}
