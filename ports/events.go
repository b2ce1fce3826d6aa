package ports

import (
	"context"

	"github.com/layer-3/walletauth/core"
)

// EventPublisher notifies other services about authentication outcomes
type EventPublisher interface {
	PublishIdentityCreated(ctx context.Context, identity core.Identity) error
	PublishLogin(ctx context.Context, grant core.SessionGrant) error
}
