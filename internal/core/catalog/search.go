package catalog

import (
	"sort"
	"strings"
	"unicode/utf8"

	"recipe-matcher/internal/core/match"
	"recipe-matcher/internal/pkg/common"

	"github.com/agnivade/levenshtein"
)

const (
	// MinSearchSimilarity 沒有詞彙分數時的最低相似度
	MinSearchSimilarity = 0.3
	// DefaultSearchLimit 預設搜尋筆數
	DefaultSearchLimit = 20
)

// SearchResult 手動搜尋結果
type SearchResult struct {
	common.Product
	Score      int     `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Search 手動搜尋商品：先依比對分數，再依編輯距離相似度排序
func Search(products []common.Product, query string, synonyms *match.SynonymTable, limit int) []SearchResult {
	q := match.NewQuery(query, synonyms)
	if q.Name == "" {
		return []SearchResult{}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	results := make([]SearchResult, 0)
	for _, p := range products {
		name := match.NormalizeName(p.DisplayName())
		if name == "" {
			continue
		}
		score := q.Score(p)
		sim := similarity(q.Name, name)
		if score == match.ScoreNone && sim < MinSearchSimilarity {
			continue
		}
		results = append(results, SearchResult{Product: p, Score: score, Similarity: sim})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		return strings.ToLower(a.DisplayName()) < strings.ToLower(b.DisplayName())
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// similarity 查詢與商品名稱（或其中任一詞）的最高相似度，範圍 [0,1]
func similarity(query, name string) float64 {
	best := ratio(query, name)
	for _, token := range match.Tokenize(name) {
		if r := ratio(query, token); r > best {
			best = r
		}
	}
	return best
}

func ratio(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
