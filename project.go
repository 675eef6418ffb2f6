package parser

import (
	"fmt"
	"strings"
)

// Drop 型付き行に変換できず除外された行
type Drop struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Projection 変換結果と除外行
type Projection[T any] struct {
	Rows    []T
	Dropped []Drop
}

func (p *Projection[T]) drop(row RawRow, format string, args ...any) {
	p.Dropped = append(p.Dropped, Drop{Line: row.Line, Reason: fmt.Sprintf(format, args...)})
}

// requiredField 列名で必須値を取得 (欠落・空白のみは false)
func requiredField(row RawRow, name string) (string, bool) {
	v, ok := row.Get(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// ProjectMemoNotes 患者メモから KNJ_KNR_NO / NAIYO を抽出
func ProjectMemoNotes(t *Table) Projection[MemoNote] {
	var p Projection[MemoNote]
	for _, row := range t.Rows {
		key, ok := requiredField(row, ColInternalKey)
		if !ok {
			p.drop(row, "missing %s", ColInternalKey)
			continue
		}
		memo, _ := row.Get(ColMemo)
		p.Rows = append(p.Rows, MemoNote{InternalKey: key, MemoText: memo})
	}
	return p
}

// ProjectPatientMaster 患者マスタから KNJ_KNR_NO / KARUTE_NO / SIMEI を抽出
func ProjectPatientMaster(t *Table) Projection[PatientMasterEntry] {
	var p Projection[PatientMasterEntry]
	for _, row := range t.Rows {
		key, ok := requiredField(row, ColInternalKey)
		if !ok {
			p.drop(row, "missing %s", ColInternalKey)
			continue
		}
		id, ok := requiredField(row, ColPatientID)
		if !ok {
			p.drop(row, "missing %s", ColPatientID)
			continue
		}
		name, _ := row.Get(ColName)
		p.Rows = append(p.Rows, PatientMasterEntry{InternalKey: key, PatientID: id, Name: name})
	}
	return p
}

// ProjectVisits 列名なし一覧から 0 列目 (カルテNO) と 2 列目 (氏名) を抽出
// 先頭行は内容にかかわらず見出し行として捨てる
func ProjectVisits(t *Table, source Role) Projection[VisitRecord] {
	var p Projection[VisitRecord]
	for i, row := range t.Rows {
		if i == 0 {
			continue
		}
		id, ok := row.At(VisitIDField)
		if !ok || strings.TrimSpace(id) == "" {
			p.drop(row, "missing field %d", VisitIDField)
			continue
		}
		name, _ := row.At(VisitNameField)
		p.Rows = append(p.Rows, VisitRecord{PatientID: id, Name: name, Source: source})
	}
	return p
}
