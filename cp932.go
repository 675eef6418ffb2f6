package parser

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// CP932 外字領域 (先行バイト F0-F9) は WHATWG と同じく U+E000 から順に割り当てる
const (
	userDefinedLeadFirst = 0xF0
	userDefinedLeadLast  = 0xF9
	userDefinedBase      = 0xE000
	sjisTrailsPerLead    = 188
)

func isSJISLead(b byte) bool {
	return (b >= 0x81 && b <= 0x9F) || (b >= 0xE0 && b <= 0xFC)
}

func isSJISTrail(b byte) bool {
	return (b >= 0x40 && b <= 0x7E) || (b >= 0x80 && b <= 0xFC)
}

// userDefinedRune 外字 2 バイトを私用領域の文字に変換
func userDefinedRune(lead, trail byte) rune {
	offset := int(trail) - 0x40
	if trail >= 0x80 {
		offset = int(trail) - 0x41
	}
	return rune(userDefinedBase + int(lead-userDefinedLeadFirst)*sjisTrailsPerLead + offset)
}

// decodeUserDefined 外字を私用領域に写像し、それ以外の区間は enc で変換する
// 区間の切れ目は必ず文字境界になる
func decodeUserDefined(enc encoding.Encoding, data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*3/2)
	start := 0
	flush := func(end int) error {
		if start == end {
			return nil
		}
		decoded, _, err := transform.Bytes(enc.NewDecoder(), data[start:end])
		if err != nil {
			return err
		}
		out = append(out, decoded...)
		return nil
	}

	for i := 0; i < len(data); {
		b := data[i]
		hasTrail := i+1 < len(data) && isSJISTrail(data[i+1])
		switch {
		case b >= userDefinedLeadFirst && b <= userDefinedLeadLast && hasTrail:
			if err := flush(i); err != nil {
				return nil, err
			}
			out = utf8.AppendRune(out, userDefinedRune(b, data[i+1]))
			i += 2
			start = i
		case isSJISLead(b) && hasTrail:
			i += 2
		default:
			i++
		}
	}
	if err := flush(len(data)); err != nil {
		return nil, err
	}
	return out, nil
}
