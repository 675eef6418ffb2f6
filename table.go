package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// HeaderMode 先頭行を列名として扱うかどうか
type HeaderMode int

const (
	WithHeader HeaderMode = iota
	Headerless
)

func (m HeaderMode) String() string {
	if m == Headerless {
		return "headerless"
	}
	return "header"
}

// RawRow CSV の 1 行 (読み取り専用)
// 列名モードでは Get、位置モードでは At で値を取り出す
type RawRow struct {
	Line    int
	fields  []string
	columns map[string]int
}

// Get 列名で値を取得 (列が存在しない・行が短い場合は false)
func (r RawRow) Get(name string) (string, bool) {
	idx, ok := r.columns[name]
	if !ok {
		return "", false
	}
	return r.At(idx)
}

// At 位置で値を取得
func (r RawRow) At(index int) (string, bool) {
	if index < 0 || index >= len(r.fields) {
		return "", false
	}
	return r.fields[index], true
}

// Len フィールド数
func (r RawRow) Len() int { return len(r.fields) }

// Table 解析済み CSV
type Table struct {
	Mode   HeaderMode
	Header []string
	Rows   []RawRow
}

// ParseTable 生バイト列を宣言された文字コードで変換し CSV として解析する
func ParseTable(data []byte, enc Encoding, mode HeaderMode) (*Table, error) {
	text, err := enc.Decode(data)
	if err != nil {
		return nil, err
	}
	return ReadTable(text, mode)
}

// ReadTable UTF-8 テキストを CSV として解析する (空行はスキップ)
func ReadTable(text []byte, mode HeaderMode) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	table := &Table{Mode: mode}
	var columns map[string]int

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ParseError{Line: pe.Line, Err: pe.Err}
			}
			return nil, &ParseError{Err: err}
		}

		line, _ := reader.FieldPos(0)

		// 列名行: 前後の空白を除去、重複列名は先頭を優先
		if mode == WithHeader && columns == nil {
			columns = make(map[string]int, len(record))
			table.Header = make([]string, len(record))
			for i, h := range record {
				name := strings.TrimSpace(h)
				table.Header[i] = name
				if _, exists := columns[name]; !exists {
					columns[name] = i
				}
			}
			continue
		}

		table.Rows = append(table.Rows, RawRow{
			Line:    line,
			fields:  record,
			columns: columns,
		})
	}

	return table, nil
}
