package events

import (
	"strconv"
	"strings"

	"nftstaking/crypto"
)

func normalizeAsset(asset string) string {
	trimmed := strings.TrimSpace(asset)
	if trimmed == "" {
		return ""
	}
	return strings.ToUpper(trimmed)
}

func accountString(addr [20]byte) string {
	return crypto.FromArray(crypto.AccountPrefix, addr).String()
}

func assetString(addr [20]byte) string {
	return crypto.FromArray(crypto.AssetPrefix, addr).String()
}

func uintToString(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func intToString(v int64) string {
	return strconv.FormatInt(v, 10)
}
