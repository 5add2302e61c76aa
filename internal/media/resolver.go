// Package media resolves platform file references to durable URLs.
package media

import (
	"context"

	"nootboard/internal/domain"
)

// GatewayResolver serves media straight from the chat platform's file
// URL. The URL stays valid as long as the platform keeps the file.
type GatewayResolver struct {
	transport domain.ChatTransport
}

// NewGatewayResolver creates a resolver backed by the chat transport.
func NewGatewayResolver(transport domain.ChatTransport) *GatewayResolver {
	return &GatewayResolver{transport: transport}
}

// Resolve implements domain.MediaResolver.
func (r *GatewayResolver) Resolve(ctx context.Context, fileRef string) (string, error) {
	return r.transport.FileURL(ctx, fileRef)
}
