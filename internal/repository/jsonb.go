package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// jsonbValue は任意の値をjsonbカラムへの書き込み用にエンコードする。
// nilスライスは空配列として格納し、読み取り側のnilチェックを不要にする。
func jsonbValue(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jsonbエンコードに失敗しました: %w", err)
	}
	if string(data) == "null" {
		return []byte("[]"), nil
	}
	return data, nil
}

// scanJSONB はjsonbカラムから読み取ったバイト列をdestへデコードする。
// NULLカラム（空バイト列）はゼロ値のまま返す。
func scanJSONB(data []byte, dest any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("jsonbデコードに失敗しました: %w", err)
	}
	return nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
