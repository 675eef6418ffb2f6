// Package parquetout 抽出結果を Parquet で書き出す (集計ツール向け)
package parquetout

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	parser "github.com/Saki-tw/go-jp-ikan-parser"
)

// Row Parquet スキーマ
type Row struct {
	PatientID string `parquet:"karute_no"`
	Name      string `parquet:"simei"`
	MemoText  string `parquet:"naiyo"`
	// 正規化後のカルテ番号 (数値化できない場合は null)
	PatientNum *int64 `parquet:"karute_num,optional"`
}

// FromRecord 抽出結果 1 件を Parquet 行に変換
func FromRecord(rec parser.OutputRecord) Row {
	row := Row{
		PatientID: rec.PatientID,
		Name:      rec.Name,
		MemoText:  rec.MemoText,
	}
	if n, ok := parser.NormalizeID(rec.PatientID); ok {
		row.PatientNum = &n
	}
	return row
}

// Write 抽出結果を w に書き出す
func Write(w io.Writer, records []parser.OutputRecord) error {
	writer := parquet.NewGenericWriter[Row](w,
		parquet.Compression(&parquet.Snappy),
	)

	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = FromRecord(rec)
	}
	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// WriteFile 抽出結果を path に書き出す
func WriteFile(path string, records []parser.OutputRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet: %w", err)
	}
	if err := Write(file, records); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
