package parser

import (
	"math"
	"strconv"
	"strings"
)

// NormalizeID カルテ番号を整数に正規化する ("007" と "7" は同一)
//
// 数値として解釈できない値 (空文字・英字・小数) は 0 になり ok=false を返す。
// 数値化できない値同士は 0 として結合で一致する。
func NormalizeID(id string) (n int64, ok bool) {
	s := strings.TrimSpace(id)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	// "1.0" や "1e3" のような整数値の数値表記
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// Finalize 医管未算定患者が存在する患者メモだけを残す (半結合)
//
// 出力は PatientMemoEntry の順序・カルテ番号 (正規化前)・氏名・メモをそのまま使い、
// 複数の来院行と一致しても 1 行のみ出力する。
func Finalize(cohort []VisitRecord, memos []PatientMemoEntry) []OutputRecord {
	keys := make(map[int64]struct{}, len(cohort))
	for _, rec := range cohort {
		n, _ := NormalizeID(rec.PatientID)
		keys[n] = struct{}{}
	}

	var out []OutputRecord
	for _, m := range memos {
		n, _ := NormalizeID(m.PatientID)
		if _, ok := keys[n]; !ok {
			continue
		}
		out = append(out, OutputRecord{
			PatientID: m.PatientID,
			Name:      m.Name,
			MemoText:  m.MemoText,
		})
	}
	return out
}
