package core

import "errors"

var (
	ErrInvalidAddress            = errors.New("invalid wallet address")
	ErrChallengeInvalidOrExpired = errors.New("challenge invalid or expired")
	ErrSignatureMismatch         = errors.New("signature mismatch")
	ErrStorage                   = errors.New("storage error")
	ErrTokenIssuance             = errors.New("token issuance failed")

	ErrIdentityNotFound = errors.New("identity not found")
	ErrIdentityExists   = errors.New("identity already exists")
	ErrInvalidSession   = errors.New("invalid session")
)
