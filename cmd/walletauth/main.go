package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "walletauth",
	Short: "Wallet challenge-response authentication service",
	Long: `walletauth lets users prove ownership of an Ethereum wallet by signing a
one-time challenge, and hands out a session grant in exchange.

Settings come from an optional config file and WALLETAUTH_* environment
variables, e.g. WALLETAUTH_NONCE_BACKEND=redis.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, toml or json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
