package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingInput 4 ファイルのいずれかが未指定
var ErrMissingInput = errors.New("missing input")

// Stage パイプラインの処理段階
type Stage string

const (
	StageEncoding Stage = "encoding"
	StageDecode   Stage = "decode"
	StageParse    Stage = "parse"
)

// MissingInputError 未指定の入力ロール一覧
type MissingInputError struct {
	Roles []Role
}

func (e *MissingInputError) Error() string {
	names := make([]string, len(e.Roles))
	for i, r := range e.Roles {
		names[i] = string(r)
	}
	return fmt.Sprintf("%s: %s", ErrMissingInput, strings.Join(names, ", "))
}

func (e *MissingInputError) Unwrap() error { return ErrMissingInput }

// DecodeError 宣言された文字コードとして不正なバイト列
type DecodeError struct {
	Encoding string
	Line     int
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s byte sequence: %v", e.Encoding, e.Err)
	}
	return fmt.Sprintf("invalid %s byte sequence at line %d", e.Encoding, e.Line)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ParseError CSV 構文エラー
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("csv syntax error at line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StageError どの入力のどの段階で失敗したかを示す
type StageError struct {
	Stage Stage
	Role  Role
	Name  string
	Err   error
}

func (e *StageError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Stage))
	if e.Role != "" {
		b.WriteString(" ")
		b.WriteString(string(e.Role))
	}
	if e.Name != "" {
		b.WriteString(" (")
		b.WriteString(e.Name)
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *StageError) Unwrap() error { return e.Err }
