package common

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ParseJSON 解析 JSON 字符串到結構體
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v)
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return err
		}
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}

// CleanJSONBlock 去除模型回應外層的 markdown code block
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```JSON")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// ExtractJSONObject 擷取回應中的 JSON 值
// 陣列根節點整段返回，交由呼叫端判斷型別
func ExtractJSONObject(text string) (string, bool) {
	text = CleanJSONBlock(text)

	if start := strings.IndexAny(text, "{["); start != -1 && text[start] == '[' {
		if end := strings.LastIndex(text, "]"); end > start && json.Valid([]byte(text[start:end+1])) {
			return text[start : end+1], true
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return text, false
	}
	return text[start : end+1], true
}

// ToIndentedJSON 將結構體轉換為縮排後的 JSON 字符串
func ToIndentedJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
