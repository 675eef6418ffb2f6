//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	parser "github.com/Saki-tw/go-jp-ikan-parser"
)

// processIkan 4 ファイル (Uint8Array) を突合して結果を返す
// 引数: memo, master, billed, visits, [encodings {role: name}]
func processIkan(this js.Value, args []js.Value) interface{} {
	if len(args) < len(parser.Roles) {
		return map[string]interface{}{
			"success": false,
			"error":   "4 つのファイルを指定してください",
		}
	}

	var encodings js.Value
	if len(args) > len(parser.Roles) && args[len(parser.Roles)].Type() == js.TypeObject {
		encodings = args[len(parser.Roles)]
	}

	var in parser.Inputs
	for i, info := range parser.GetRoleInfos() {
		arg := args[i]
		if arg.IsNull() || arg.IsUndefined() {
			continue
		}
		data := make([]byte, arg.Get("length").Int())
		js.CopyBytesToGo(data, arg)

		enc := ""
		if encodings.Truthy() {
			if v := encodings.Get(string(info.Role)); v.Type() == js.TypeString {
				enc = v.String()
			}
		}
		in.Set(&parser.Input{
			Role:     info.Role,
			Name:     info.FileName,
			Encoding: enc,
			Data:     data,
		})
	}

	res, err := parser.Run(in)
	if err != nil {
		return map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		}
	}

	records, err := json.Marshal(res.Records)
	if err != nil {
		return map[string]interface{}{
			"success": false,
			"error":   "JSON 変換に失敗しました: " + err.Error(),
		}
	}
	stats, _ := json.Marshal(res.Stats)

	return map[string]interface{}{
		"success": true,
		"records": string(records),
		"total":   len(res.Records),
		"csv":     string(res.Export),
		"stats":   string(stats),
	}
}

// getSupportedEncodings 対応文字コード一覧 (JSON)
func getSupportedEncodings(this js.Value, args []js.Value) interface{} {
	jsonBytes, _ := json.Marshal(parser.SupportedEncodings())
	return string(jsonBytes)
}

// getRoles 入力ロール一覧 (JSON)
func getRoles(this js.Value, args []js.Value) interface{} {
	jsonBytes, _ := json.Marshal(parser.GetRoleInfos())
	return string(jsonBytes)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("processIkan", js.FuncOf(processIkan))
	js.Global().Set("getSupportedEncodings", js.FuncOf(getSupportedEncodings))
	js.Global().Set("getIkanRoles", js.FuncOf(getRoles))

	js.Global().Set("wasmReady", true)

	println("go-jp-ikan-parser WASM モジュールを読み込みました")

	<-c
}
