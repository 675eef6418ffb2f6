package parser

// CountObservations カルテ番号ごとの出現回数 (完全重複行も 1 回ずつ数える)
func CountObservations(lists ...[]VisitRecord) map[string]int {
	counts := make(map[string]int)
	for _, list := range lists {
		for _, rec := range list {
			counts[rec.PatientID]++
		}
	}
	return counts
}

// Reconcile 医管算定患者と来院患者を連結し、出現回数がちょうど 1 のカルテ番号の行だけを残す
//
// 片方の一覧にしか現れない患者を抽出するため「来院したが医管未算定」と
// 「医管算定済みだが来院なし」の両方が含まれる。どちら由来かは VisitRecord.Source で判別できる。
// 連結順 (算定患者 → 来院患者) の相対順序を保つ。
func Reconcile(billed, visits []VisitRecord) []VisitRecord {
	counts := CountObservations(billed, visits)

	var out []VisitRecord
	for _, list := range [][]VisitRecord{billed, visits} {
		for _, rec := range list {
			if counts[rec.PatientID] == 1 {
				out = append(out, rec)
			}
		}
	}
	return out
}
