package catalog

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Record 商品資料檔中的一筆原始資料
type Record map[string]interface{}

// DuplicateGroup 同名商品群組
type DuplicateGroup struct {
	ProductName string   `json:"productName"`
	Kept        Record   `json:"keptProduct"`
	Removed     []Record `json:"removedProducts"`
}

// DedupeReport 去重結果
type DedupeReport struct {
	Products    []Record         `json:"-"`
	TotalBefore int              `json:"totalBefore"`
	TotalAfter  int              `json:"totalAfter"`
	Groups      []DuplicateGroup `json:"duplicateGroups"`
}

// Removed 移除的商品數
func (r *DedupeReport) Removed() int {
	return r.TotalBefore - r.TotalAfter
}

var imageFields = []string{"image", "image_url", "imageUrl"}

// Dedupe 依 product_name（不分大小寫、去除空白）去除重複商品
// 每組保留有圖片、欄位最完整、最先出現的一筆；沒有名稱的資料原樣保留在最後
func Dedupe(records []Record) *DedupeReport {
	groups := make(map[string][]int)
	var order []string
	var unnamed []int

	for i, rec := range records {
		key := dedupeKey(rec)
		if key == "" {
			unnamed = append(unnamed, i)
			continue
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	report := &DedupeReport{TotalBefore: len(records)}
	for _, key := range order {
		indexes := groups[key]
		best := selectBest(records, indexes)
		report.Products = append(report.Products, records[best])
		if len(indexes) == 1 {
			continue
		}

		group := DuplicateGroup{ProductName: key, Kept: records[best]}
		for _, idx := range indexes {
			if idx != best {
				group.Removed = append(group.Removed, records[idx])
			}
		}
		report.Groups = append(report.Groups, group)
	}
	for _, idx := range unnamed {
		report.Products = append(report.Products, records[idx])
	}

	report.TotalAfter = len(report.Products)
	return report
}

// WriteSummary 輸出去重報告摘要，最多列出 sample 組
func (r *DedupeReport) WriteSummary(w io.Writer, sample int) error {
	lines := []string{
		"=== Product Deduplication Report ===",
		fmt.Sprintf("Total products before: %d", r.TotalBefore),
		fmt.Sprintf("Duplicate groups found: %d", len(r.Groups)),
		fmt.Sprintf("Products removed: %d", r.Removed()),
		fmt.Sprintf("Total products after: %d", r.TotalAfter),
		"",
	}

	if len(r.Groups) == 0 {
		lines = append(lines, "No duplicate groups detected.")
	} else {
		lines = append(lines, "Sample duplicate groups:")
		for i, g := range r.Groups {
			if i >= sample {
				break
			}
			removed := make([]string, 0, len(g.Removed))
			for _, rec := range g.Removed {
				name := stringField(rec, "product_name")
				if name == "" {
					name = "(unnamed)"
				}
				removed = append(removed, name)
			}
			lines = append(lines,
				fmt.Sprintf("  %d. %s", i+1, g.ProductName),
				fmt.Sprintf("     Kept: %s", stringField(g.Kept, "product_name")),
				fmt.Sprintf("     Removed: %s", strings.Join(removed, ", ")),
			)
		}
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func dedupeKey(rec Record) string {
	return strings.ToLower(strings.TrimSpace(stringField(rec, "product_name")))
}

// selectBest 有圖片優先，其次欄位完整度，最後保留先出現者
func selectBest(records []Record, indexes []int) int {
	sorted := append([]int(nil), indexes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := records[sorted[i]], records[sorted[j]]
		if ha, hb := hasImage(a), hasImage(b); ha != hb {
			return ha
		}
		if ca, cb := completeness(a), completeness(b); ca != cb {
			return ca > cb
		}
		return sorted[i] < sorted[j]
	})
	return sorted[0]
}

func hasImage(rec Record) bool {
	for _, field := range imageFields {
		if strings.TrimSpace(stringField(rec, field)) != "" {
			return true
		}
	}
	return false
}

// completeness 非 null、非空字串的欄位數
func completeness(rec Record) int {
	score := 0
	for _, v := range rec {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if strings.TrimSpace(val) == "" {
				continue
			}
		}
		score++
	}
	return score
}

func stringField(rec Record, field string) string {
	s, _ := rec[field].(string)
	return s
}
