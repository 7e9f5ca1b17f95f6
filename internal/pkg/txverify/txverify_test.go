package txverify

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatVerifier(t *testing.T) {
	hex64 := strings.Repeat("ab", 32)
	v := FormatVerifier{}
	ctx := context.Background()

	tests := []struct {
		name    string
		chain   string
		hash    string
		wantErr error
	}{
		{"evm valid", ChainEVM, "0x" + hex64, nil},
		{"evm upper hex", ChainEVM, "0x" + strings.ToUpper(hex64), nil},
		{"evm missing prefix", ChainEVM, hex64, ErrInvalidHash},
		{"evm too short", ChainEVM, "0x1234", ErrInvalidHash},
		{"btc valid", ChainBTC, hex64, nil},
		{"btc with prefix", ChainBTC, "0x" + hex64, ErrInvalidHash},
		{"tron valid", ChainTron, hex64, nil},
		{"tron non hex", ChainTron, strings.Repeat("zz", 32), ErrInvalidHash},
		{"empty", ChainBTC, "", ErrInvalidHash},
		{"unknown chain", "sol", hex64, ErrUnknownChain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(ctx, tt.chain, tt.hash)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "0xabcdef", Normalize("  0xABCdef "))
}
