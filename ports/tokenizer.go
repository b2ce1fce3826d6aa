package ports

import (
	"context"

	"github.com/layer-3/walletauth/core"
)

// SessionIssuer turns a verified identity into session material
type SessionIssuer interface {
	IssueSession(ctx context.Context, identity core.Identity) (core.SessionGrant, error)

	// ParseSession decodes and validates a token produced by IssueSession
	ParseSession(ctx context.Context, token string) (core.SessionGrant, error)
}
