// Package parser 医管未算定患者抽出パイプライン
// 電子カルテ (D_KJMK / D_KNJM) と医管算定・来院一覧 CSV を突合し、
// 医管が記録されていない来院患者と患者メモを抽出する
package parser

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// ============================================================================
// 文字コード定義
// ============================================================================

// Encoding 入力ファイルの宣言済み文字コード
type Encoding struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`

	// nil は UTF-8 (変換なし、妥当性検査のみ)
	enc encoding.Encoding
	// CP932 外字 (先行バイト F0-F9) を私用領域に写像する
	userDefined bool
}

const (
	EncodingShiftJIS = "shift_jis"
	EncodingEUCJP    = "euc-jp"
	EncodingBig5     = "big5"
	EncodingGBK      = "gbk"
	EncodingEUCKR    = "euc-kr"
	EncodingUTF8     = "utf-8"
)

var encodings = []Encoding{
	{
		Code:        EncodingShiftJIS,
		Name:        "Shift_JIS (CP932)",
		Aliases:     []string{"shift-jis", "sjis", "cp932", "ms932", "windows-31j", "x-sjis"},
		enc:         japanese.ShiftJIS,
		userDefined: true,
	},
	{
		Code:    EncodingEUCJP,
		Name:    "EUC-JP",
		Aliases: []string{"eucjp", "euc_jp", "x-euc-jp"},
		enc:     japanese.EUCJP,
	},
	{
		Code:    EncodingBig5,
		Name:    "Big5",
		Aliases: []string{"cp950", "big5-hkscs"},
		enc:     traditionalchinese.Big5,
	},
	{
		Code:    EncodingGBK,
		Name:    "GBK",
		Aliases: []string{"cp936", "gb2312"},
		enc:     simplifiedchinese.GBK,
	},
	{
		Code:    EncodingEUCKR,
		Name:    "EUC-KR",
		Aliases: []string{"euckr", "cp949", "uhc"},
		enc:     korean.EUCKR,
	},
	{
		Code:    EncodingUTF8,
		Name:    "UTF-8",
		Aliases: []string{"utf8"},
	},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SupportedEncodings 対応文字コード一覧
func SupportedEncodings() []Encoding {
	out := make([]Encoding, len(encodings))
	copy(out, encodings)
	return out
}

// LookupEncoding 名称または別名から文字コードを取得
// 登録外の名称は WHATWG ラベルとして解決を試みる
func LookupEncoding(name string) (Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Encoding{}, fmt.Errorf("encoding is empty")
	}

	for _, e := range encodings {
		if e.Code == key {
			return e, nil
		}
		for _, a := range e.Aliases {
			if a == key {
				return e, nil
			}
		}
	}

	enc, err := htmlindex.Get(key)
	if err != nil {
		return Encoding{}, fmt.Errorf("unsupported encoding %q", name)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = key
	}
	for _, e := range encodings {
		if e.Code == canonical {
			return e, nil
		}
	}
	// U+FFFD を正当に表現できる文字コードは不正バイト検出ができない
	switch canonical {
	case "utf-16le", "utf-16be", "replacement":
		return Encoding{}, fmt.Errorf("unsupported encoding %q", name)
	}
	return Encoding{Code: canonical, Name: canonical, enc: enc}, nil
}

// Decode 宣言された文字コードで UTF-8 に変換する
// 不正なバイト列は推測で補わず *DecodeError を返す
func (e Encoding) Decode(data []byte) ([]byte, error) {
	var out []byte
	if e.enc == nil {
		if !utf8.Valid(data) {
			return nil, &DecodeError{Encoding: e.Code, Line: invalidUTF8Line(data)}
		}
		out = data
	} else {
		var decoded []byte
		var err error
		if e.userDefined {
			decoded, err = decodeUserDefined(e.enc, data)
		} else {
			decoded, _, err = transform.Bytes(e.enc.NewDecoder(), data)
		}
		if err != nil {
			return nil, &DecodeError{Encoding: e.Code, Err: err}
		}
		// 旧来の文字コードは U+FFFD を表現できないため、出現 = 変換不能バイト
		if idx := bytes.IndexRune(decoded, utf8.RuneError); idx >= 0 {
			return nil, &DecodeError{Encoding: e.Code, Line: bytes.Count(decoded[:idx], []byte("\n")) + 1}
		}
		out = decoded
	}

	return bytes.TrimPrefix(out, utf8BOM), nil
}

// invalidUTF8Line 最初の不正 UTF-8 シーケンスの行番号
func invalidUTF8Line(data []byte) int {
	line := 1
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return line
		}
		if r == '\n' {
			line++
		}
		i += size
	}
	return line
}
