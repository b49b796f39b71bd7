package genesis

import (
	"fmt"
	"strings"

	"nftstaking/crypto"
)

// ParseBech32Account decodes an account address (stk1...).
func ParseBech32Account(addr string) ([20]byte, error) {
	return parseBech32(addr, crypto.AccountPrefix)
}

// ParseBech32Asset decodes a collection or NFT identifier (nft1...).
func ParseBech32Asset(addr string) ([20]byte, error) {
	return parseBech32(addr, crypto.AssetPrefix)
}

func parseBech32(addr string, want crypto.AddressPrefix) ([20]byte, error) {
	var out [20]byte
	decoded, err := crypto.DecodeAddress(strings.TrimSpace(addr))
	if err != nil {
		return out, fmt.Errorf("decode bech32 %s: %w", want, err)
	}
	if decoded.Prefix() != want {
		return out, fmt.Errorf("decode bech32 %s: unsupported hrp %q", want, decoded.Prefix())
	}
	return decoded.Array(), nil
}
