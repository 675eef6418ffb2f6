// Package main 医管未算定患者チェック - コマンドライン版
package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	parser "github.com/Saki-tw/go-jp-ikan-parser"
)

func main() {
	cmd := &cli.Command{
		Name:  "ikan",
		Usage: "医管が算定されていない来院患者の患者メモを抽出する",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("IKAN_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "4 ファイルを突合して CSV (または Parquet) を出力",
				ArgsUsage: "[D_KJMK.csv D_KNJM.csv ikan.csv knall.csv]",
				Action:    runReconcile,
				Flags:     runFlags(),
			},
			{
				Name:   "encodings",
				Usage:  "対応している文字コードを表示",
				Action: listEncodings,
			},
			{
				Name:   "roles",
				Usage:  "入力ファイルの役割を表示",
				Action: listRoles,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func runFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "出力ファイル (既定: <output.dir>/医管対象患者_YYYY-MM-DD.csv)",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "出力形式 csv | parquet",
		},
		&cli.IntFlag{
			Name:  "preview",
			Usage: "表示する先頭件数 (0 は全件)",
			Value: -1,
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "段階ごとの件数を表示",
		},
	}
	for _, r := range parser.GetRoleInfos() {
		flags = append(flags,
			&cli.StringFlag{
				Name:  roleFlag(r.Role),
				Usage: r.Label + " (" + r.FileName + ")",
			},
			&cli.StringFlag{
				Name:  roleFlag(r.Role) + "-encoding",
				Usage: r.Label + " の文字コード",
			},
		)
	}
	return flags
}
