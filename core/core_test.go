package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "lower case", input: "0xabcdef0123456789abcdef0123456789abcd1234", want: "0xabcdef0123456789abcdef0123456789abcd1234"},
		{name: "mixed case", input: "0xABCDef0123456789abcdef0123456789ABCD1234", want: "0xabcdef0123456789abcdef0123456789abcd1234"},
		{name: "upper prefix", input: "0XABCDEF0123456789ABCDEF0123456789ABCD1234", want: "0xabcdef0123456789abcdef0123456789abcd1234"},
		{name: "surrounding space", input: " 0xabcdef0123456789abcdef0123456789abcd1234\n", want: "0xabcdef0123456789abcdef0123456789abcd1234"},
		{name: "missing prefix", input: "abcdef0123456789abcdef0123456789abcd123456", wantErr: true},
		{name: "too short", input: "0xabcdef", wantErr: true},
		{name: "too long", input: "0xabcdef0123456789abcdef0123456789abcd123456", wantErr: true},
		{name: "non hex", input: "0xzzcdef0123456789abcdef0123456789abcd1234", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAddress(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMessageTemplateIsDeterministic(t *testing.T) {
	tmpl := MessageTemplate{Domain: "app.example", Statement: "Sign in."}
	createdAt := time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)

	msg := tmpl.Compose("0xabcdef0123456789abcdef0123456789abcd1234", "00ff", createdAt)
	expected := "app.example wants you to sign in with your wallet:\n" +
		"0xabcdef0123456789abcdef0123456789abcd1234\n\n" +
		"Sign in.\n\n" +
		"Nonce: 00ff\n" +
		"Issued At: 2026-10-19T12:30:00Z"
	assert.Equal(t, expected, msg)

	// Same instant in another zone renders the same bytes
	local := createdAt.In(time.FixedZone("UTC+3", 3*60*60))
	assert.Equal(t, msg, tmpl.Compose("0xabcdef0123456789abcdef0123456789abcd1234", "00ff", local))

	record := NonceRecord{Address: "0xabcdef0123456789abcdef0123456789abcd1234", Nonce: "00ff", CreatedAt: createdAt}
	assert.Equal(t, msg, tmpl.ComposeRecord(record))
}

func TestNonceRecordValidAt(t *testing.T) {
	createdAt := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	record := NonceRecord{CreatedAt: createdAt, ExpiresAt: createdAt.Add(DefaultChallengeTTL)}

	assert.True(t, record.ValidAt(createdAt))
	assert.True(t, record.ValidAt(record.ExpiresAt.Add(-time.Nanosecond)))
	assert.False(t, record.ValidAt(record.ExpiresAt))
	assert.False(t, record.ValidAt(record.ExpiresAt.Add(time.Second)))

	record.Used = true
	assert.False(t, record.ValidAt(createdAt))
}
