package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Деньги хранятся в минимальных денежных единицах (int64), как и в других
// наших сервисах; десятичная строка появляется только на границе API.

// ParseAmountMinor разбирает десятичную строку ("3.50", "7", "0.05") в
// минимальные единицы. Допускается не больше двух знаков после точки.
func ParseAmountMinor(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount is empty")
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	wholePart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		wholePart = s[:idx]
		fracPart = s[idx+1:]
	}
	if wholePart == "" {
		wholePart = "0"
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("amount %q has more than two fraction digits", s)
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	whole, err := strconv.ParseInt(wholePart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}

	minor := whole*100 + frac
	if negative {
		minor = -minor
	}
	return minor, nil
}

// FormatAmountMinor печатает минимальные единицы как десятичную строку с
// двумя знаками после точки.
func FormatAmountMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
