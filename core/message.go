package core

import (
	"strings"
	"time"
)

const (
	DefaultDomain    = "walletauth"
	DefaultStatement = "Sign this message to prove you own this wallet. It will not trigger a blockchain transaction or cost any fees."
)

// MessageTemplate composes the text a wallet signs for a challenge.
// The output depends only on the template fields and the stored nonce record,
// so issuance and verification produce identical bytes.
type MessageTemplate struct {
	Domain    string
	Statement string
}

// DefaultMessageTemplate returns the template used when none is configured
func DefaultMessageTemplate() MessageTemplate {
	return MessageTemplate{Domain: DefaultDomain, Statement: DefaultStatement}
}

// Compose renders the challenge message for the given record fields
func (t MessageTemplate) Compose(address, nonce string, createdAt time.Time) string {
	var b strings.Builder
	b.WriteString(t.Domain)
	b.WriteString(" wants you to sign in with your wallet:\n")
	b.WriteString(address)
	b.WriteString("\n\n")
	b.WriteString(t.Statement)
	b.WriteString("\n\nNonce: ")
	b.WriteString(nonce)
	b.WriteString("\nIssued At: ")
	b.WriteString(createdAt.UTC().Format(time.RFC3339))
	return b.String()
}

// ComposeRecord renders the challenge message for a stored nonce record
func (t MessageTemplate) ComposeRecord(record NonceRecord) string {
	return t.Compose(record.Address, record.Nonce, record.CreatedAt)
}
