package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletauth/internal/eth"
	"github.com/spf13/cobra"
)

var (
	signKey         string
	signMessage     string
	signMessageFile string
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a challenge message with a wallet key (development tool)",
	Long: `sign produces the personal_sign signature a wallet would return for a
challenge message, so the verify endpoint can be exercised without a wallet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(signKey, "0x"))
		if err != nil {
			return fmt.Errorf("parse key: %w", err)
		}

		message, err := readSignMessage()
		if err != nil {
			return err
		}

		signature, err := eth.SignPersonalMessage(key, message)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "address:   %s\n", eth.AddressOf(key))
		fmt.Fprintf(out, "signature: %s\n", signature)
		return nil
	},
}

func readSignMessage() ([]byte, error) {
	switch {
	case signMessage != "" && signMessageFile != "":
		return nil, errors.New("use either --message or --message-file")
	case signMessageFile != "":
		return os.ReadFile(signMessageFile)
	case signMessage != "":
		return []byte(signMessage), nil
	default:
		return nil, errors.New("a message is required")
	}
}

func init() {
	signCmd.Flags().StringVar(&signKey, "key", "", "hex-encoded secp256k1 private key")
	signCmd.Flags().StringVar(&signMessage, "message", "", "challenge message to sign")
	signCmd.Flags().StringVar(&signMessageFile, "message-file", "", "file containing the challenge message")
	_ = signCmd.MarkFlagRequired("key")
}
