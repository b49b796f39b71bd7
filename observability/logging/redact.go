package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces values that must never reach a log sink.
const RedactedValue = "[REDACTED]"

// fields that are logged verbatim
var plainKeys = map[string]struct{}{
	"op":        {},
	"config":    {},
	"outcome":   {},
	"component": {},
	"requestid": {},
	"error":     {},
}

// account keys are shortened rather than hidden so operators can still
// correlate a caller across lines.
var accountKeys = map[string]struct{}{
	"caller": {},
	"owner":  {},
	"admin":  {},
}

// MaskAddress keeps the human readable part and the checksum tail of a bech32
// address. Anything that does not look like one is redacted.
func MaskAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	sep := strings.LastIndexByte(addr, '1')
	if sep <= 0 || len(addr)-sep < 12 {
		return RedactedValue
	}
	return addr[:sep+1] + "..." + addr[len(addr)-6:]
}

// MaskField builds the attribute for key, redacting or shortening the value
// unless the key is known to be harmless. Empty values pass through.
func MaskField(key, value string) slog.Attr {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if strings.TrimSpace(value) == "" {
		return slog.String(key, value)
	}
	if _, ok := plainKeys[normalized]; ok {
		return slog.String(key, value)
	}
	if _, ok := accountKeys[normalized]; ok {
		return slog.String(key, MaskAddress(value))
	}
	return slog.String(key, RedactedValue)
}
