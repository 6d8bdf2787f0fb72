package ports

import (
	"context"

	"github.com/tendrilhq/tendril/pkg/domain"
)

// Transport defines how outbound payloads reach a contact. Channel pairing,
// reconnects and envelope encoding are the implementation's concern; the
// engine only needs delivery of a payload to an address.
type Transport interface {
	Send(ctx context.Context, userID, contact string, payload domain.Payload) error
}
