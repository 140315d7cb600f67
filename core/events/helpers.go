package events

import (
	"strconv"
	"strings"

	"stakevault/crypto"
)

func normalizeAsset(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset))
}

func formatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func formatAddress(b [20]byte) string {
	return crypto.MustNewAddress(crypto.AccountPrefix, b[:]).String()
}
