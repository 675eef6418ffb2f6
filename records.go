package parser

// ============================================================================
// 電子カルテ CSV 列名
// ============================================================================

const (
	ColInternalKey = "KNJ_KNR_NO" // 患者管理番号 (内部キー)
	ColMemo        = "NAIYO"      // メモ内容
	ColPatientID   = "KARUTE_NO"  // カルテ番号
	ColName        = "SIMEI"      // 氏名
)

// 医管算定・来院一覧 (列名なし) の列位置
const (
	VisitIDField   = 0 // カルテNO
	VisitNameField = 2 // 氏名
)

// ============================================================================
// 型付き行スキーマ
// ============================================================================

// MemoNote 患者メモ (D_KJMK)
type MemoNote struct {
	InternalKey string
	MemoText    string
}

// PatientMasterEntry 患者マスタ (D_KNJM)
type PatientMasterEntry struct {
	InternalKey string
	PatientID   string
	Name        string
}

// VisitRecord 医管算定患者または来院患者の 1 行
type VisitRecord struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	Source    Role   `json:"source"` // どちらの一覧から来たか
}

// PatientMemoEntry 患者マスタ + 患者メモ (カルテ番号で一意)
type PatientMemoEntry struct {
	PatientID string
	Name      string
	MemoText  string
}

// OutputRecord 医管未算定患者の抽出結果
type OutputRecord struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	MemoText  string `json:"memo_text"`
}
