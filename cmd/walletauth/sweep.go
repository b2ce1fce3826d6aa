package main

import (
	"fmt"
	"time"

	"github.com/layer-3/walletauth/internal/clock"
	"github.com/layer-3/walletauth/internal/config"
	"github.com/layer-3/walletauth/internal/logger"
	"github.com/layer-3/walletauth/ports"
	"github.com/spf13/cobra"
)

var sweepBefore time.Duration

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired challenges from the nonce backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		log := logger.New(cfg.Log, "walletauth")

		a := &app{cfg: cfg, log: log, clock: clock.System{}}
		defer a.Close()

		nonces, err := a.openNonceStore(cmd.Context())
		if err != nil {
			return err
		}

		sweeper, ok := nonces.(ports.NonceSweeper)
		if !ok {
			log.WithField("backend", cfg.Nonce.Backend).Info("backend expires challenges on its own, nothing to sweep")
			return nil
		}

		removed, err := sweeper.Sweep(cmd.Context(), a.clock.Now().Add(-sweepBefore))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired challenges\n", removed)
		return nil
	},
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepBefore, "before", 0, "only remove challenges that expired at least this long ago")
}
