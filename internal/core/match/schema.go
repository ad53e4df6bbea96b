package match

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// answerSchemaJSON 模型回應的 JSON Schema
// confidence 與 reasoning 不限制型別，非數值信心由正規化處理
const answerSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "entry": {
      "type": "object",
      "required": ["productId"],
      "properties": {
        "productId": {"type": "string", "minLength": 1}
      }
    }
  },
  "properties": {
    "bestMatch": {
      "type": ["object", "null"],
      "required": ["productId"],
      "properties": {
        "productId": {"type": "string", "minLength": 1}
      }
    },
    "alternatives": {
      "type": ["array", "null"],
      "items": {"$ref": "#/definitions/entry"}
    }
  }
}`

var answerSchema = mustCompileSchema(answerSchemaJSON)

func mustCompileSchema(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid model answer schema: %v", err))
	}
	return s
}

// schemaViolations 驗證結果中需要視為不存在的欄位
type schemaViolations struct {
	bestMatch       bool
	allAlternatives bool
	alternatives    map[int]bool
	messages        []string
}

func (v *schemaViolations) empty() bool {
	return len(v.messages) == 0
}

// validateAnswer 以 schema 驗證模型回應，並將違規對應到 bestMatch 或特定 alternatives 項目
func validateAnswer(jsonText string) (*schemaViolations, error) {
	result, err := answerSchema.Validate(gojsonschema.NewStringLoader(jsonText))
	if err != nil {
		return nil, err
	}

	v := &schemaViolations{alternatives: map[int]bool{}}
	if result.Valid() {
		return v, nil
	}

	for _, desc := range result.Errors() {
		field := strings.TrimPrefix(desc.Field(), "(root)")
		field = strings.TrimPrefix(field, ".")
		v.messages = append(v.messages, fmt.Sprintf("%s: %s", orRoot(field), desc.Description()))

		parts := strings.Split(field, ".")
		switch parts[0] {
		case "bestMatch":
			v.bestMatch = true
		case "alternatives":
			if len(parts) < 2 {
				v.allAlternatives = true
				continue
			}
			idx, convErr := strconv.Atoi(parts[1])
			if convErr != nil {
				v.allAlternatives = true
				continue
			}
			v.alternatives[idx] = true
		}
	}
	return v, nil
}

func orRoot(field string) string {
	if field == "" {
		return "(root)"
	}
	return field
}
