package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"recipe-matcher/internal/pkg/common"
)

// RawProduct 商品資料檔中的原始格式
type RawProduct struct {
	Category    string          `json:"category"`
	ProductName string          `json:"product_name"`
	Price       *float64        `json:"price"`
	UnitPrice   json.RawMessage `json:"unit_price,omitempty"`
	SalesCount  *int            `json:"sales_count"`
	ImageURL    string          `json:"image_url"`
	SourceURL   string          `json:"source_url"`
}

// ToProduct 轉為商品目錄格式，id 為 weee-<index>
func (r RawProduct) ToProduct(index int) common.Product {
	return common.Product{
		ID:       fmt.Sprintf("weee-%d", index),
		Name:     r.ProductName,
		Price:    r.Price,
		Image:    r.ImageURL,
		Category: r.Category,
	}
}

// LoadProducts 讀取商品資料檔
func LoadProducts(path string) ([]common.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read products file: %w", err)
	}
	return ParseProducts(data)
}

// ParseProducts 解析商品資料
func ParseProducts(data []byte) ([]common.Product, error) {
	var raw []RawProduct
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse products data: %w", err)
	}

	products := make([]common.Product, 0, len(raw))
	for i, r := range raw {
		products = append(products, r.ToProduct(i))
	}
	return products, nil
}
