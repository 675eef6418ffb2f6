package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	parser "github.com/Saki-tw/go-jp-ikan-parser"
	"github.com/Saki-tw/go-jp-ikan-parser/internal/config"
	"github.com/Saki-tw/go-jp-ikan-parser/internal/parquetout"
	pkgconfig "github.com/Saki-tw/go-jp-ikan-parser/pkg/config"
)

var roleFlags = map[parser.Role]string{
	parser.RoleMemoNotes:      "memo",
	parser.RolePatientMaster:  "master",
	parser.RoleBilledPatients: "billed",
	parser.RoleAllVisits:      "visits",
}

func roleFlag(r parser.Role) string {
	return roleFlags[r]
}

func runReconcile(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if err := applyFlags(cfg, cmd); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	level := cfg.App.LogLevel
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	runID := uuid.NewString()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With(slog.String("run_id", runID))

	in, err := readInputs(&cfg.Inputs)
	if err != nil {
		return err
	}

	res, err := parser.Run(in, parser.WithLogger(logger))
	if err != nil {
		return err
	}

	out := cmd.String("out")
	if out == "" {
		out = defaultOutputPath(cfg.Output, time.Now())
	}
	if err := writeOutput(out, cfg.Output.Format, res); err != nil {
		return err
	}

	printSummary(os.Stdout, res, cfg.Output.Preview)
	fmt.Printf("\n出力: %s (%d 件)\n", out, len(res.Records))
	return nil
}

// applyFlags コマンドライン指定で設定を上書きする
// 位置引数のファイルはファイル名からロールを判定する
func applyFlags(cfg *config.Config, cmd *cli.Command) error {
	if err := assignPositional(&cfg.Inputs, cmd.Args().Slice()); err != nil {
		return err
	}
	for _, r := range parser.Roles {
		ic := cfg.Inputs.ByRole(r)
		if v := cmd.String(roleFlag(r)); v != "" {
			ic.Path = v
		}
		if v := cmd.String(roleFlag(r) + "-encoding"); v != "" {
			ic.Encoding = v
		}
	}
	if v := cmd.String("format"); v != "" {
		cfg.Output.Format = v
	}
	if v := cmd.Int("preview"); v >= 0 {
		cfg.Output.Preview = int(v)
	}
	return nil
}

func assignPositional(inputs *config.InputsConfig, args []string) error {
	for _, arg := range args {
		role, ok := parser.DetectRole(arg)
		if !ok {
			return fmt.Errorf("cannot determine input role for %s (use --memo/--master/--billed/--visits)", arg)
		}
		inputs.ByRole(role).Path = arg
	}
	return nil
}

// readInputs 設定されたパスを読み込む (未指定ロールは nil のまま)
func readInputs(inputs *config.InputsConfig) (parser.Inputs, error) {
	var in parser.Inputs
	for _, r := range parser.Roles {
		ic := inputs.ByRole(r)
		if ic.Path == "" {
			continue
		}
		data, err := os.ReadFile(ic.Path)
		if err != nil {
			return in, fmt.Errorf("read %s: %w", r, err)
		}
		in.Set(&parser.Input{
			Role:     r,
			Name:     filepath.Base(ic.Path),
			Encoding: ic.Encoding,
			Data:     data,
		})
	}
	return in, nil
}

func defaultOutputPath(out config.OutputConfig, now time.Time) string {
	name := parser.ExportFileName(now)
	if out.Format == config.FormatParquet {
		name = strings.TrimSuffix(name, ".csv") + ".parquet"
	}
	return filepath.Join(out.Dir, name)
}

func writeOutput(path, format string, res *parser.Result) error {
	if format == config.FormatParquet {
		return parquetout.WriteFile(path, res.Records)
	}
	if err := os.WriteFile(path, res.Export, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func printSummary(w io.Writer, res *parser.Result, preview int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(parser.ExportHeader, "\t"))
	for _, rec := range res.Preview(preview) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", rec.PatientID, rec.Name, oneLine(rec.MemoText))
	}
	tw.Flush()
	if shown := len(res.Preview(preview)); shown < len(res.Records) {
		fmt.Fprintf(w, "... 全 %d 件中 %d 件を表示\n", len(res.Records), shown)
	}

	s := res.Stats
	fmt.Fprintf(w, "\n突合: メモ %d 件 (マスタ不一致 %d, 重複 %d)\n", s.Linked, s.UnmatchedNotes, s.DuplicateIDs)
	fmt.Fprintf(w, "未算定: %d 件 (来院一覧 %d, 算定一覧 %d)\n", s.Unbilled, s.UnbilledVisits, s.UnbilledBilled)
	if s.NonNumericIDs > 0 {
		fmt.Fprintf(w, "注意: 数値でないカルテ番号 %d 件は 0 として照合されました\n", s.NonNumericIDs)
	}
}

func oneLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

func listEncodings(_ context.Context, _ *cli.Command) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, e := range parser.SupportedEncodings() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Code, e.Name, strings.Join(e.Aliases, ", "))
	}
	return tw.Flush()
}

func listRoles(_ context.Context, _ *cli.Command) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, r := range parser.GetRoleInfos() {
		fmt.Fprintf(tw, "--%s\t%s\t%s\t%s\n", roleFlag(r.Role), r.FileName, r.Label, r.Encoding)
	}
	return tw.Flush()
}
