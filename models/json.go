package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// scanJSON 从数据库读取 JSON 列（MySQL 返回 []byte，sqlite 可能返回 string）
func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}
}
