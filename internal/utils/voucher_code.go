package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// VoucherCodeAlphabet is the character set voucher codes are drawn from.
const VoucherCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateVoucherCode returns a code of the given length drawn uniformly from VoucherCodeAlphabet
func GenerateVoucherCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid voucher code length %d", length)
	}
	max := big.NewInt(int64(len(VoucherCodeAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		b[i] = VoucherCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
// It is used to derive university and residence hall ids from names.
func Slugify(s string) string {
	out := make([]byte, 0, len(s))
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, byte(r))
			dash = false
		case r >= 'A' && r <= 'Z':
			out = append(out, byte(r-'A'+'a'))
			dash = false
		default:
			if len(out) > 0 && !dash {
				out = append(out, '-')
				dash = true
			}
		}
	}
	if dash {
		out = out[:len(out)-1]
	}
	return string(out)
}
