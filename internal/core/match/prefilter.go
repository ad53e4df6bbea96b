package match

import (
	"context"
	"sort"
	"strings"

	"recipe-matcher/internal/pkg/common"
)

// ctxCheckInterval 每評分多少商品檢查一次 context
const ctxCheckInterval = 256

// ClampMaxCandidates 解析候選數上限：未設定為 20，並限制在 [1, 20]
func ClampMaxCandidates(n *int) int {
	if n == nil {
		return MaxProductsForModel
	}
	if *n < 1 {
		return 1
	}
	if *n > MaxProductsForModel {
		return MaxProductsForModel
	}
	return *n
}

// Prefilter 對所有商品評分，丟棄 0 分，依分數與名稱排序後截斷
func Prefilter(ctx context.Context, query *Query, products []common.Product, maxCandidates int) ([]ScoredProduct, error) {
	if maxCandidates < 1 {
		maxCandidates = 1
	}

	scored := make([]ScoredProduct, 0, len(products))
	for i, product := range products {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if score := query.Score(product); score > ScoreNone {
			scored = append(scored, ScoredProduct{Product: product, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return lessScored(scored[i], scored[j])
	})

	if len(scored) > maxCandidates {
		scored = scored[:maxCandidates]
	}
	return scored, nil
}

// lessScored 分數高者在前；同分時名稱不分大小寫遞增，再以原始位元組排序
func lessScored(a, b ScoredProduct) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	an, bn := a.DisplayName(), b.DisplayName()
	al, bl := strings.ToLower(an), strings.ToLower(bn)
	if al != bl {
		return al < bl
	}
	return an < bn
}
