package service

import (
	"errors"
	"fmt"

	"github.com/layer-3/walletauth/core"
)

// storageErr tags err as a storage fault unless an adapter already did
func storageErr(op string, err error) error {
	if errors.Is(err, core.ErrStorage) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, core.ErrStorage, err)
}
