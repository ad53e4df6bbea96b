package match

import (
	"regexp"
	"strings"

	"recipe-matcher/internal/pkg/common"
)

// 分數等級
const (
	ScoreNone    = 0
	ScorePartial = 2
	ScoreWord    = 3
	ScorePhrase  = 4
	ScoreExact   = 5
)

// minTokenLength 參與 token 比對的最短長度
const minTokenLength = 2

// Query 單一食材的比對查詢，建立一次後可對多個商品評分
type Query struct {
	Name     string
	Tokens   []string
	Variants []string

	wordPatterns []*regexp.Regexp
	partials     []string
}

// NewQuery 建立查詢：正規化名稱、切分 token、展開同義詞並預先編譯詞邊界規則
func NewQuery(ingredientName string, synonyms *SynonymTable) *Query {
	name := NormalizeName(ingredientName)
	q := &Query{
		Name:     name,
		Tokens:   Tokenize(name),
		Variants: synonyms.Expand(name),
	}
	for _, token := range q.Tokens {
		if len(token) < minTokenLength {
			continue
		}
		q.wordPatterns = append(q.wordPatterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(token)+`\b`))
		q.partials = append(q.partials, token)
	}
	return q
}

// Score 對單一商品評分，取最高等級：
// 5 完全相同、4 包含同義詞、3 詞邊界 token、2 部分 token、0 無相符
func (q *Query) Score(product common.Product) int {
	name := NormalizeName(product.DisplayName())
	if name == "" {
		return ScoreNone
	}

	phrase := false
	for _, variant := range q.Variants {
		if name == variant {
			return ScoreExact
		}
		if !phrase && strings.Contains(name, variant) {
			phrase = true
		}
	}
	if phrase {
		return ScorePhrase
	}

	for _, pattern := range q.wordPatterns {
		if pattern.MatchString(name) {
			return ScoreWord
		}
	}

	for _, token := range q.partials {
		if strings.Contains(name, token) {
			return ScorePartial
		}
	}

	return ScoreNone
}
