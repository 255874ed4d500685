package inventory

import "context"

// IntegrationHandler receives inventory events once they are committed.
type IntegrationHandler interface {
	HandleInventoryPosted(ctx context.Context, evt PostedEvent) error
}
