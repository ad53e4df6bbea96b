package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName 將食材或商品名稱正規化：NFKC、去除控制字元、小寫、去除前後空白
func NormalizeName(name string) string {
	normed := norm.NFKC.String(name)
	normed = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, normed)
	return strings.ToLower(strings.TrimSpace(normed))
}

// Tokenize 以空白切分已正規化的名稱
func Tokenize(normalized string) []string {
	return strings.Fields(normalized)
}
