package utils

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const NotAvailable = "N/A"

const (
	UpArrow   = "▲"
	DownArrow = "▼"
)

// TruncateString cuts str to num bytes, ending in "..." when there is room.
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

func missing(v float64) bool {
	return v == 0 || math.IsNaN(v)
}

// FormatPrice renders v as US dollars with between 2 and 8 fraction digits.
func FormatPrice(v float64) string {
	if missing(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	d := decimal.NewFromFloat(v).Round(8)
	s := d.Abs().String()
	if frac := strings.IndexByte(s, '.'); frac < 0 {
		s += ".00"
	} else if len(s)-frac-1 < 2 {
		s += strings.Repeat("0", 2-(len(s)-frac-1))
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + "$" + AddCommas(s)
}

// FormatMarketCap abbreviates with T, B and M suffixes.
func FormatMarketCap(v float64) string {
	if missing(v) {
		return NotAvailable
	}
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	}
	return FormatPrice(v)
}

// FormatVolume abbreviates with B and M suffixes. There is no T tier.
func FormatVolume(v float64) string {
	if missing(v) {
		return NotAvailable
	}
	switch {
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	}
	return FormatPrice(v)
}

// FormatChange renders the magnitude of a percent change, e.g. "3.14%".
func FormatChange(v float64) string {
	if math.IsNaN(v) {
		v = 0
	}
	return fmt.Sprintf("%.2f%%", math.Abs(v))
}

// ChangeIndicator returns the arrow for the sign of v. Zero counts as up.
func ChangeIndicator(v float64) string {
	if v < 0 {
		return DownArrow
	}
	return UpArrow
}

// FormatTime renders t as a 12-hour clock, e.g. "03:04:05 PM".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("03:04:05 PM")
}

// FormatAddress shortens addresses longer than 12 characters to the first
// and last 6 characters.
func FormatAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-6:]
}
