package store

import (
	"errors"
	"fmt"

	"github.com/layer-3/walletauth/core"
)

// ErrDuplicateChallenge is returned by Put when the (address, nonce) pair is
// already recorded. The stored record, used or not, is left as it was.
var ErrDuplicateChallenge = errors.New("challenge already recorded")

func duplicateChallenge() error {
	return fmt.Errorf("put nonce: %w: %w", core.ErrStorage, ErrDuplicateChallenge)
}
