package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/internal/metrics"
	"github.com/layer-3/walletauth/ports"
	"github.com/sirupsen/logrus"
)

// LoginResult is returned for a successful verification
type LoginResult struct {
	Identity    core.Identity
	NewIdentity bool
	Grant       core.SessionGrant
}

// AuthService runs the challenge/verify/session cycle
type AuthService struct {
	challenges *ChallengeIssuer
	verifier   *SignatureVerifier
	identities *IdentityResolver
	sessions   ports.SessionIssuer
	eventPub   ports.EventPublisher
	log        logrus.FieldLogger
	metrics    *metrics.Metrics
}

// NewAuthService creates a new authentication service
func NewAuthService(
	challenges *ChallengeIssuer,
	verifier *SignatureVerifier,
	identities *IdentityResolver,
	sessions ports.SessionIssuer,
	eventPub ports.EventPublisher,
	log logrus.FieldLogger,
	m *metrics.Metrics,
) *AuthService {
	return &AuthService{
		challenges: challenges,
		verifier:   verifier,
		identities: identities,
		sessions:   sessions,
		eventPub:   eventPub,
		log:        log,
		metrics:    m,
	}
}

// CreateChallenge issues a challenge for a wallet address
func (s *AuthService) CreateChallenge(ctx context.Context, address string) (Challenge, error) {
	challenge, err := s.challenges.Issue(ctx, address)
	if err != nil {
		return Challenge{}, err
	}

	s.metrics.ChallengesIssued.Inc()
	s.log.WithFields(logrus.Fields{
		"address":    challenge.Address,
		"expires_at": challenge.ExpiresAt,
	}).Debug("challenge issued")

	return challenge, nil
}

// Login verifies a signed challenge, resolves the identity and issues a session.
// A session is only ever issued after the verifier accepted the signature.
func (s *AuthService) Login(ctx context.Context, address, signature, nonce string) (LoginResult, error) {
	started := time.Now()

	ok, err := s.verifier.Verify(ctx, address, signature, nonce)
	if err != nil || !ok {
		if err == nil {
			err = core.ErrSignatureMismatch
		}
		s.metrics.ObserveVerification(verificationResult(err), started)
		s.log.WithField("address", address).WithError(err).Info("verification rejected")
		return LoginResult{}, err
	}

	identity, created, err := s.identities.Resolve(ctx, address)
	if err != nil {
		s.metrics.ObserveVerification(metrics.ResultError, started)
		return LoginResult{}, fmt.Errorf("resolve identity: %w", err)
	}
	if created {
		s.metrics.IdentitiesCreated.Inc()
		if err := s.eventPub.PublishIdentityCreated(ctx, identity); err != nil {
			s.log.WithError(err).Warn("failed to publish identity created event")
		}
	}

	grant, err := s.sessions.IssueSession(ctx, identity)
	if err != nil {
		s.metrics.ObserveVerification(metrics.ResultError, started)
		if !errors.Is(err, core.ErrTokenIssuance) && !errors.Is(err, core.ErrStorage) {
			err = fmt.Errorf("%w: %w", core.ErrTokenIssuance, err)
		}
		return LoginResult{}, fmt.Errorf("issue session: %w", err)
	}

	// The session is already issued; event delivery failures are logged only
	if err := s.eventPub.PublishLogin(ctx, grant); err != nil {
		s.log.WithError(err).Warn("failed to publish login event")
	}

	s.metrics.ObserveVerification(metrics.ResultSuccess, started)
	s.log.WithFields(logrus.Fields{
		"address":      identity.WalletAddress,
		"identity_id":  identity.ID,
		"new_identity": created,
	}).Info("wallet authenticated")

	return LoginResult{Identity: identity, NewIdentity: created, Grant: grant}, nil
}

// ValidateSession checks a session token and returns the grant with its identity
func (s *AuthService) ValidateSession(ctx context.Context, token string) (core.SessionGrant, core.Identity, error) {
	grant, err := s.sessions.ParseSession(ctx, token)
	if err != nil {
		return core.SessionGrant{}, core.Identity{}, err
	}

	identity, err := s.identities.Lookup(ctx, grant.IdentityID)
	if errors.Is(err, core.ErrIdentityNotFound) {
		return core.SessionGrant{}, core.Identity{}, core.ErrInvalidSession
	}
	if err != nil {
		return core.SessionGrant{}, core.Identity{}, err
	}

	return grant, identity, nil
}

func verificationResult(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAddress):
		return metrics.ResultInvalidAddress
	case errors.Is(err, core.ErrChallengeInvalidOrExpired):
		return metrics.ResultChallengeInvalid
	case errors.Is(err, core.ErrSignatureMismatch):
		return metrics.ResultSignatureInvalid
	default:
		return metrics.ResultError
	}
}
