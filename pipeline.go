package parser

import (
	"io"
	"log/slog"
)

// ============================================================================
// 入力
// ============================================================================

// Input 1 ファイル分の生バイト列
type Input struct {
	Role     Role
	Name     string // ファイル名 (エラー表示用)
	Encoding string // 空なら DefaultEncoding(Role)
	Data     []byte
}

// Inputs パイプラインの 4 入力
type Inputs struct {
	MemoNotes      *Input
	PatientMaster  *Input
	BilledPatients *Input
	AllVisits      *Input
}

// ByRole ロールに対応する入力
func (in *Inputs) ByRole(r Role) *Input {
	switch r {
	case RoleMemoNotes:
		return in.MemoNotes
	case RolePatientMaster:
		return in.PatientMaster
	case RoleBilledPatients:
		return in.BilledPatients
	case RoleAllVisits:
		return in.AllVisits
	}
	return nil
}

// Set ロールに入力を割り当てる
func (in *Inputs) Set(input *Input) {
	switch input.Role {
	case RoleMemoNotes:
		in.MemoNotes = input
	case RolePatientMaster:
		in.PatientMaster = input
	case RoleBilledPatients:
		in.BilledPatients = input
	case RoleAllVisits:
		in.AllVisits = input
	}
}

// Missing 未指定のロール
func (in *Inputs) Missing() []Role {
	var missing []Role
	for _, r := range Roles {
		if in.ByRole(r) == nil {
			missing = append(missing, r)
		}
	}
	return missing
}

// ============================================================================
// 結果
// ============================================================================

// Stats 各段階の件数
type Stats struct {
	Rows    map[Role]int `json:"rows"`
	Dropped map[Role]int `json:"dropped"`

	Linked         int `json:"linked"`
	UnmatchedNotes int `json:"unmatched_notes"`
	DuplicateIDs   int `json:"duplicate_ids"`
	Observations   int `json:"observations"`
	Unbilled       int `json:"unbilled"`
	UnbilledVisits int `json:"unbilled_from_visits"`
	UnbilledBilled int `json:"unbilled_from_billed"`
	NonNumericIDs  int `json:"non_numeric_ids"`
	Output         int `json:"output"`
}

// Result 1 回の実行結果
type Result struct {
	Records []OutputRecord
	Cohort  []VisitRecord   // 出現回数 1 の行 (結合前)
	Dropped map[Role][]Drop // 除外行の詳細
	Export  []byte          // BOM 付き CSV
	Stats   Stats
}

// Preview 先頭 n 件 (n <= 0 は全件)
func (r *Result) Preview(n int) []OutputRecord {
	if n <= 0 || n >= len(r.Records) {
		return r.Records
	}
	return r.Records[:n]
}

// ============================================================================
// 実行
// ============================================================================

// Option 実行オプション
type Option func(*runner)

type runner struct {
	logger *slog.Logger
}

// WithLogger 段階ごとの件数を出力するロガー
func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Run 4 入力を突合し、医管未算定患者のメモ一覧を作成する
// いずれかの段階で失敗した場合は途中結果を返さない
func Run(in Inputs, opts ...Option) (*Result, error) {
	r := &runner{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}

	if missing := in.Missing(); len(missing) > 0 {
		return nil, &MissingInputError{Roles: missing}
	}

	tables := make(map[Role]*Table, len(Roles))
	for _, role := range Roles {
		t, err := r.load(role, in.ByRole(role))
		if err != nil {
			return nil, err
		}
		tables[role] = t
	}

	res := &Result{
		Dropped: make(map[Role][]Drop),
		Stats: Stats{
			Rows:    make(map[Role]int),
			Dropped: make(map[Role]int),
		},
	}

	notes := ProjectMemoNotes(tables[RoleMemoNotes])
	master := ProjectPatientMaster(tables[RolePatientMaster])
	billed := ProjectVisits(tables[RoleBilledPatients], RoleBilledPatients)
	visits := ProjectVisits(tables[RoleAllVisits], RoleAllVisits)

	res.record(RoleMemoNotes, len(notes.Rows), notes.Dropped)
	res.record(RolePatientMaster, len(master.Rows), master.Dropped)
	res.record(RoleBilledPatients, len(billed.Rows), billed.Dropped)
	res.record(RoleAllVisits, len(visits.Rows), visits.Dropped)
	for _, role := range Roles {
		r.logger.Debug("projected",
			slog.String("role", string(role)),
			slog.Int("rows", res.Stats.Rows[role]),
			slog.Int("dropped", res.Stats.Dropped[role]))
	}

	linkage := Link(notes.Rows, master.Rows)
	res.Stats.Linked = len(linkage.Entries)
	res.Stats.UnmatchedNotes = linkage.Unmatched
	res.Stats.DuplicateIDs = linkage.Duplicates
	r.logger.Debug("linked memo notes to patient master",
		slog.Int("entries", len(linkage.Entries)),
		slog.Int("unmatched", linkage.Unmatched),
		slog.Int("duplicates", linkage.Duplicates))

	res.Cohort = Reconcile(billed.Rows, visits.Rows)
	res.Stats.Observations = len(billed.Rows) + len(visits.Rows)
	res.Stats.Unbilled = len(res.Cohort)
	for _, rec := range res.Cohort {
		if rec.Source == RoleBilledPatients {
			res.Stats.UnbilledBilled++
		} else {
			res.Stats.UnbilledVisits++
		}
		if _, ok := NormalizeID(rec.PatientID); !ok {
			res.Stats.NonNumericIDs++
		}
	}
	for _, e := range linkage.Entries {
		if _, ok := NormalizeID(e.PatientID); !ok {
			res.Stats.NonNumericIDs++
		}
	}
	r.logger.Debug("reconciled billed patients against visits",
		slog.Int("observations", res.Stats.Observations),
		slog.Int("unbilled", res.Stats.Unbilled),
		slog.Int("from_visits", res.Stats.UnbilledVisits),
		slog.Int("from_billed", res.Stats.UnbilledBilled))
	if res.Stats.NonNumericIDs > 0 {
		r.logger.Warn("non-numeric patient ids normalized to 0",
			slog.Int("count", res.Stats.NonNumericIDs))
	}

	res.Records = Finalize(res.Cohort, linkage.Entries)
	res.Stats.Output = len(res.Records)
	res.Export = Export(res.Records)

	r.logger.Info("reconciliation complete",
		slog.Int("output", res.Stats.Output),
		slog.Int("export_bytes", len(res.Export)))

	return res, nil
}

func (r *runner) load(role Role, input *Input) (*Table, error) {
	name := input.Encoding
	if name == "" {
		name = DefaultEncoding(role)
	}

	enc, err := LookupEncoding(name)
	if err != nil {
		return nil, &StageError{Stage: StageEncoding, Role: role, Name: input.Name, Err: err}
	}

	text, err := enc.Decode(input.Data)
	if err != nil {
		return nil, &StageError{Stage: StageDecode, Role: role, Name: input.Name, Err: err}
	}

	t, err := ReadTable(text, role.Mode())
	if err != nil {
		return nil, &StageError{Stage: StageParse, Role: role, Name: input.Name, Err: err}
	}

	r.logger.Debug("parsed input",
		slog.String("role", string(role)),
		slog.String("file", input.Name),
		slog.String("encoding", enc.Code),
		slog.Int("rows", len(t.Rows)))

	return t, nil
}

func (r *Result) record(role Role, rows int, dropped []Drop) {
	r.Stats.Rows[role] = rows
	r.Stats.Dropped[role] = len(dropped)
	if len(dropped) > 0 {
		r.Dropped[role] = dropped
	}
}
