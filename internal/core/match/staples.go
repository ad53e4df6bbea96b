package match

import "strings"

// DefaultBasicIngredients 預設不需要購買的基本食材
var DefaultBasicIngredients = []string{"water", "salt", "sugar"}

// IsBasicIngredient 判斷食材是否為基本食材（子字串比對）
// 例如 "sea salt" 與 "unsalted butter" 都會命中 "salt"
func IsBasicIngredient(name string, staples []string) bool {
	normalized := NormalizeName(name)
	if normalized == "" {
		return false
	}
	for _, staple := range staples {
		s := NormalizeName(staple)
		if s != "" && strings.Contains(normalized, s) {
			return true
		}
	}
	return false
}
