package parser

// Linkage 患者メモと患者マスタの結合結果
type Linkage struct {
	Entries    []PatientMemoEntry
	Unmatched  int // 患者マスタに該当がなく捨てたメモ
	Duplicates int // カルテ番号重複で捨てたメモ
}

// Link 患者メモを内部キーで患者マスタに結合し、カルテ番号で重複排除する
//
// 内部キーは生文字列の完全一致。同じ内部キーを持つマスタ行が複数ある場合は
// ファイル上で先に現れた行を採用し、同じカルテ番号の結合結果も先着のみ残す。
func Link(notes []MemoNote, master []PatientMasterEntry) Linkage {
	index := make(map[string]PatientMasterEntry, len(master))
	for _, m := range master {
		if _, exists := index[m.InternalKey]; !exists {
			index[m.InternalKey] = m
		}
	}

	var out Linkage
	seen := make(map[string]struct{})
	for _, n := range notes {
		m, ok := index[n.InternalKey]
		if !ok {
			out.Unmatched++
			continue
		}
		if _, dup := seen[m.PatientID]; dup {
			out.Duplicates++
			continue
		}
		seen[m.PatientID] = struct{}{}
		out.Entries = append(out.Entries, PatientMemoEntry{
			PatientID: m.PatientID,
			Name:      m.Name,
			MemoText:  n.MemoText,
		})
	}

	return out
}
