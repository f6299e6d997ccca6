package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	bonkMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	wifMint  = "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"
)

func TestExtract_SingleAddressInProse(t *testing.T) {
	text := "new gem just dropped, CA: " + bonkMint + " don't fade this one"
	got := Extract(text)
	require.Len(t, got, 1)
	assert.Equal(t, bonkMint, got[0])
}

func TestExtract_MultipleAddressesKeepOrder(t *testing.T) {
	text := wifMint + " flipped, rotating into " + bonkMint
	got := Extract(text)
	require.Len(t, got, 2)
	assert.Equal(t, []string{wifMint, bonkMint}, got)
}

func TestExtract_Deduplicates(t *testing.T) {
	text := bonkMint + " i repeat " + bonkMint
	got := Extract(text)
	assert.Len(t, got, 1)
}

func TestExtract_NoAddress(t *testing.T) {
	assert.Nil(t, Extract("gm everyone, big week ahead for solana"))
	assert.Nil(t, Extract(""))
}

func TestExtract_RejectsNonDecodingMatches(t *testing.T) {
	// Right charset and length, wrong decoded size.
	short := strings.Repeat("z", 32)
	long := strings.Repeat("z", 44)
	assert.Nil(t, Extract("look at "+short+" and "+long))
}

func TestExtract_ExcludesReservedAddresses(t *testing.T) {
	text := "system program 11111111111111111111111111111111 " +
		"and wSOL So11111111111111111111111111111111111111112 " +
		"but also " + wifMint
	got := Extract(text)
	require.Len(t, got, 1)
	assert.Equal(t, wifMint, got[0])
}

func TestExtract_IgnoresEVMAddresses(t *testing.T) {
	assert.Nil(t, Extract("aped 0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"))
}

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"real mint", bonkMint, true},
		{"system program", "11111111111111111111111111111111", true},
		{"too short", "abc", false},
		{"too long", strings.Repeat("1", 45), false},
		{"bad charset", strings.Repeat("0", 40), false},
		{"wrong decoded length", strings.Repeat("z", 40), false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidAddress(tt.in))
		})
	}
}
