package reconcile

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Broker number parse errors. Both are recoverable: the value defaults to zero.
var (
	ErrMissingNumber     = errors.New("missing number")
	ErrUnparseableNumber = errors.New("unparseable number")
)

// ParseBrokerNumber parses a broker-formatted monetary string such as
// "- 264.14", "1 020.00" or "1,020.50". Whitespace (including non-breaking
// space) is removed. When both ',' and '.' occur, the one that comes last is
// the decimal point and the other groups thousands, so "1.234,56" and
// "1,234.56" agree. A lone comma followed by other than three digits is a
// decimal comma.
func ParseBrokerNumber(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return -1
		case r == '\u2212': // minus sign
			return '-'
		}
		return r
	}, s)
	if cleaned == "" {
		return decimal.Zero, ErrMissingNumber
	}

	switch commas := strings.Count(cleaned, ","); {
	case commas == 0:
	case strings.LastIndexByte(cleaned, ',') > strings.LastIndexByte(cleaned, '.') && strings.Contains(cleaned, "."):
		// A second comma after this survives and fails the parse below.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case strings.Contains(cleaned, "."):
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case commas == 1 && len(cleaned)-strings.LastIndexByte(cleaned, ',')-1 != 3:
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	default:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseableNumber, s)
	}
	return d, nil
}

// parseOrZero parses an optional money field. Missing and unparseable
// values count as zero.
func parseOrZero(s string) decimal.Decimal {
	d, err := ParseBrokerNumber(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
