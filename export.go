package parser

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"time"
)

// ExportHeader 出力 CSV の見出し
var ExportHeader = []string{"カルテNO", "氏名", "メモ内容"}

// Excel が UTF-8 と認識するための BOM
const exportBOM = "\uFEFF"

// WriteExport BOM 付き UTF-8 CSV (CRLF、全フィールドを二重引用符で囲む) を書き出す
// フィールド内の改行はそのまま書き出す。encoding/csv で読み戻すとフィールド内の CRLF は LF になる
func WriteExport(w io.Writer, records []OutputRecord) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(exportBOM)
	bw.WriteString(strings.Join(ExportHeader, ","))
	bw.WriteString("\r\n")

	for _, rec := range records {
		for i, field := range []string{rec.PatientID, rec.Name, rec.MemoText} {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteByte('"')
			bw.WriteString(strings.ReplaceAll(field, `"`, `""`))
			bw.WriteByte('"')
		}
		bw.WriteString("\r\n")
	}

	return bw.Flush()
}

// Export 出力 CSV をバイト列で返す
func Export(records []OutputRecord) []byte {
	var buf bytes.Buffer
	// bytes.Buffer への書き込みは失敗しない
	_ = WriteExport(&buf, records)
	return buf.Bytes()
}

// ExportFileName ダウンロード用ファイル名 (医管対象患者_YYYY-MM-DD.csv)
func ExportFileName(t time.Time) string {
	return "医管対象患者_" + t.Format("2006-01-02") + ".csv"
}
