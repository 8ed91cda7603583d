package utils

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// FallbackAmount is returned by FormatUnits for input it cannot convert.
const FallbackAmount = "0.00"

// FormatUnits converts a base-unit integer amount into "{int}.{frac}" where
// int is raw / 10^decimals and frac is the first two digits of the remainder,
// zero-padded to decimals digits. Malformed input yields FallbackAmount.
// The result is cut from the decimal digits of raw, so cost does not grow
// with decimals.
func FormatUnits(raw string, decimals int) string {
	if decimals <= 0 {
		return FallbackAmount
	}
	val, ok := new(big.Int).SetString(raw, 10)
	if !ok || val.Sign() < 0 {
		return FallbackAmount
	}

	digits := val.String()
	fracLen := decimals
	if fracLen > 2 {
		fracLen = 2
	}

	if len(digits) > decimals {
		split := len(digits) - decimals
		return digits[:split] + "." + digits[split:split+fracLen]
	}

	// raw < 10^decimals: the remainder is raw itself, left-padded with
	// decimals-len(digits) zeros.
	zeros := decimals - len(digits)
	if zeros >= fracLen {
		return "0." + strings.Repeat("0", fracLen)
	}
	return "0." + strings.Repeat("0", zeros) + digits[:fracLen-zeros]
}

// ParseDecimals parses a decimals count as sent by the explorer.
// It returns -1 for anything that is not a non-negative integer.
func ParseDecimals(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// ShortAddress renders 0x1234...abcd style addresses.
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

func TruncateString(str string, num int) string {
	if len(str) <= num {
		return str
	}
	if num <= 3 {
		return str[:num]
	}
	return str[0:num-3] + "..."
}

func AddCommas(s string) string {
	s = strings.ReplaceAll(s, ",", "")
	if len(s) == 0 {
		return s
	}
	parts := strings.Split(s, ".")
	integerPart := parts[0]
	sign := ""
	if strings.HasPrefix(integerPart, "-") {
		sign = "-"
		integerPart = integerPart[1:]
	}

	n := len(integerPart)
	if n <= 3 {
		return s
	}

	var result strings.Builder
	result.WriteString(sign)
	remainder := n % 3
	if remainder > 0 {
		result.WriteString(integerPart[:remainder])
		result.WriteString(",")
	}
	for i := remainder; i < n; i += 3 {
		if i > remainder {
			result.WriteString(",")
		}
		result.WriteString(integerPart[i : i+3])
	}

	if len(parts) > 1 {
		result.WriteString(".")
		result.WriteString(parts[1])
	}
	return result.String()
}

func FormatFloat(f float64, decimals int) string {
	return AddCommas(fmt.Sprintf("%.*f", decimals, f))
}

// FormatUSD renders a fiat amount as $1,234.56.
func FormatUSD(f float64) string {
	return "$" + FormatFloat(f, 2)
}
