package parser

import (
	"path/filepath"
	"strings"
)

// Role 入力ファイルの役割
type Role string

const (
	RoleMemoNotes      Role = "memo-notes"      // 患者メモ D_KJMK.csv
	RolePatientMaster  Role = "patient-master"  // 患者マスタ D_KNJM.csv
	RoleBilledPatients Role = "billed-patients" // 医管算定患者一覧 ikan.csv
	RoleAllVisits      Role = "all-visits"      // 来院患者一覧 knall.csv
)

// Roles パイプラインが要求する 4 入力 (処理順)
var Roles = []Role{RoleMemoNotes, RolePatientMaster, RoleBilledPatients, RoleAllVisits}

// RoleInfo 入力ロールの表示情報
type RoleInfo struct {
	Role     Role   `json:"role"`
	Label    string `json:"label"`
	FileName string `json:"file_name"`
	Header   bool   `json:"header"`
	Encoding string `json:"encoding"`
}

var roleInfos = map[Role]RoleInfo{
	RoleMemoNotes:      {Role: RoleMemoNotes, Label: "患者メモ", FileName: "D_KJMK.csv", Header: true, Encoding: EncodingShiftJIS},
	RolePatientMaster:  {Role: RolePatientMaster, Label: "患者マスタ", FileName: "D_KNJM.csv", Header: true, Encoding: EncodingShiftJIS},
	RoleBilledPatients: {Role: RoleBilledPatients, Label: "医管算定患者一覧", FileName: "ikan.csv", Header: false, Encoding: EncodingShiftJIS},
	RoleAllVisits:      {Role: RoleAllVisits, Label: "来院患者一覧", FileName: "knall.csv", Header: false, Encoding: EncodingShiftJIS},
}

// GetRoleInfos 入力ロール一覧 (処理順)
func GetRoleInfos() []RoleInfo {
	out := make([]RoleInfo, 0, len(Roles))
	for _, r := range Roles {
		out = append(out, roleInfos[r])
	}
	return out
}

// Valid 既知のロールかどうか
func (r Role) Valid() bool {
	_, ok := roleInfos[r]
	return ok
}

// Mode 列名行の有無
func (r Role) Mode() HeaderMode {
	if roleInfos[r].Header {
		return WithHeader
	}
	return Headerless
}

// Label 日本語表示名
func (r Role) Label() string {
	if info, ok := roleInfos[r]; ok {
		return info.Label
	}
	return string(r)
}

// DefaultEncoding 呼び出し側が文字コードを宣言しなかった場合の既定値
// 電子カルテの出力はすべて Shift_JIS (CP932)
func DefaultEncoding(r Role) string {
	if info, ok := roleInfos[r]; ok {
		return info.Encoding
	}
	return EncodingShiftJIS
}

// DetectRole ファイル名からロールを判定
func DetectRole(filename string) (Role, bool) {
	base := strings.ToLower(filepath.Base(filename))

	switch {
	case strings.Contains(base, "kjmk"):
		return RoleMemoNotes, true
	case strings.Contains(base, "knjm"):
		return RolePatientMaster, true
	case strings.Contains(base, "knall"):
		return RoleAllVisits, true
	case strings.Contains(base, "ikan"):
		return RoleBilledPatients, true
	}

	return "", false
}
