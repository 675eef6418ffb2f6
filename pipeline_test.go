package parser

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type fixture struct {
	memo, master, billed, visits string
}

func (f fixture) inputs(t *testing.T) Inputs {
	t.Helper()
	return Inputs{
		MemoNotes:      &Input{Role: RoleMemoNotes, Name: "D_KJMK.csv", Data: sjis(t, f.memo)},
		PatientMaster:  &Input{Role: RolePatientMaster, Name: "D_KNJM.csv", Data: sjis(t, f.master)},
		BilledPatients: &Input{Role: RoleBilledPatients, Name: "ikan.csv", Data: sjis(t, f.billed)},
		AllVisits:      &Input{Role: RoleAllVisits, Name: "knall.csv", Data: sjis(t, f.visits)},
	}
}

var scenarioA = fixture{
	memo:   "KNJ_KNR_NO,NAIYO\nK1,note1\n",
	master: "KNJ_KNR_NO,KARUTE_NO,SIMEI\nK1,100,Tanaka\n",
	billed: "カルテNO,受付,氏名\n100,,Tanaka\n",
	visits: "カルテNO,受付,氏名\n100,,Tanaka\n200,,Sato\n",
}

func TestRun_ScenarioA_BilledPatientExcluded(t *testing.T) {
	res, err := Run(scenarioA.inputs(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Cohort) != 1 || res.Cohort[0].PatientID != "200" {
		t.Fatalf("cohort = %+v, want [200]", res.Cohort)
	}
	if len(res.Records) != 0 {
		t.Errorf("records = %+v, want empty", res.Records)
	}
	if res.Stats.Output != 0 || res.Stats.Linked != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestRun_ScenarioB_NotVisited(t *testing.T) {
	f := scenarioA
	f.visits = "カルテNO,受付,氏名\n200,,Sato\n"

	res, err := Run(f.inputs(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Cohort) != 2 {
		t.Fatalf("cohort = %+v, want 100 and 200", res.Cohort)
	}
	want := OutputRecord{PatientID: "100", Name: "Tanaka", MemoText: "note1"}
	if len(res.Records) != 1 || res.Records[0] != want {
		t.Fatalf("records = %+v, want [%+v]", res.Records, want)
	}
	if res.Stats.UnbilledBilled != 1 || res.Stats.UnbilledVisits != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if !bytes.Contains(res.Export, []byte("\"100\",\"Tanaka\",\"note1\"\r\n")) {
		t.Errorf("export = %q", res.Export)
	}
}

func TestRun_ScenarioC_EmptyMemoNotes(t *testing.T) {
	f := fixture{
		memo:   "",
		master: "KNJ_KNR_NO,KARUTE_NO,SIMEI\nK1,100,田中\n",
		billed: "header\n",
		visits: "header\n300,,鈴木\n",
	}
	res, err := Run(f.inputs(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Records) != 0 {
		t.Errorf("records = %+v, want empty", res.Records)
	}
	if string(res.Export) != "\uFEFFカルテNO,氏名,メモ内容\r\n" {
		t.Errorf("export = %q", res.Export)
	}
}

func TestRun_JapaneseRoundTripAndDedup(t *testing.T) {
	f := fixture{
		memo:   " KNJ_KNR_NO , NAIYO \nK1,糖尿病 管理\nK2,再診\nK1,重複メモ\nK9,マスタなし\n",
		master: "KNJ_KNR_NO,KARUTE_NO,SIMEI\nK1,0100,田中 一郎\nK2,200,佐藤 花子\n",
		billed: "カルテNO,受付,氏名\n",
		visits: "カルテNO,受付,氏名\n100,,田中 一郎\n200,,佐藤 花子\n200,,佐藤 花子\n",
	}
	res, err := Run(f.inputs(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := OutputRecord{PatientID: "0100", Name: "田中 一郎", MemoText: "糖尿病 管理"}
	if len(res.Records) != 1 || res.Records[0] != want {
		t.Fatalf("records = %+v, want [%+v]", res.Records, want)
	}
	if res.Stats.UnmatchedNotes != 1 || res.Stats.DuplicateIDs != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}

	seen := map[string]bool{}
	for _, r := range res.Records {
		if seen[r.PatientID] {
			t.Errorf("duplicate patient id %s", r.PatientID)
		}
		seen[r.PatientID] = true
	}
}

func TestRun_Idempotent(t *testing.T) {
	in := scenarioA.inputs(t)
	in.AllVisits.Data = sjis(t, "h\n300,,鈴木\n")

	first, err := Run(in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Run(in)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Export, second.Export) {
		t.Error("export differs between runs")
	}
	if len(first.Records) != len(second.Records) {
		t.Fatal("record count differs between runs")
	}
	for i := range first.Records {
		if first.Records[i] != second.Records[i] {
			t.Errorf("record %d differs", i)
		}
	}
}

func TestRun_MissingInput(t *testing.T) {
	in := scenarioA.inputs(t)
	in.BilledPatients = nil
	in.AllVisits = nil

	_, err := Run(in)
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("err = %v, want ErrMissingInput", err)
	}
	var me *MissingInputError
	if !errors.As(err, &me) || len(me.Roles) != 2 {
		t.Fatalf("err = %#v", err)
	}
	if !strings.Contains(err.Error(), "billed-patients, all-visits") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestRun_DecodeErrorIdentifiesInput(t *testing.T) {
	in := scenarioA.inputs(t)
	in.PatientMaster.Data = append(in.PatientMaster.Data, 0xFF, '\n')

	res, err := Run(in)
	if res != nil {
		t.Error("expected no partial result")
	}
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StageError", err)
	}
	if se.Stage != StageDecode || se.Role != RolePatientMaster {
		t.Errorf("stage = %q role = %q", se.Stage, se.Role)
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
	if !strings.HasPrefix(err.Error(), "decode patient-master (D_KNJM.csv): invalid shift_jis") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestRun_UnsupportedEncoding(t *testing.T) {
	in := scenarioA.inputs(t)
	in.MemoNotes.Encoding = "ebcdic-jp"

	_, err := Run(in)
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageEncoding {
		t.Fatalf("err = %v, want encoding stage error", err)
	}
}

func TestRun_DeclaredUTF8(t *testing.T) {
	in := scenarioA.inputs(t)
	in.MemoNotes.Encoding = "utf-8"
	in.MemoNotes.Data = []byte("\xef\xbb\xbfKNJ_KNR_NO,NAIYO\nK1,メモ\n")
	in.AllVisits.Data = sjis(t, "h\n")

	res, err := Run(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 1 || res.Records[0].MemoText != "メモ" {
		t.Errorf("records = %+v", res.Records)
	}
}

func TestRun_CP932UserDefinedName(t *testing.T) {
	in := scenarioA.inputs(t)
	// 氏名に外字 (F0 40) を含む患者マスタ
	in.PatientMaster.Data = append(sjis(t, "KNJ_KNR_NO,KARUTE_NO,SIMEI\nK1,100,田"), 0xF0, 0x40, '\n')
	in.AllVisits.Data = sjis(t, "h\n")

	res, err := Run(in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].Name != "田\uE000" {
		t.Errorf("records = %+v", res.Records)
	}
}

func TestRun_LogsAndCountsDrops(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	in := scenarioA.inputs(t)
	in.AllVisits.Data = sjis(t, "h\n,,空\nABC,,英字\n")

	res, err := Run(in, WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Dropped[RoleAllVisits] != 1 || len(res.Dropped[RoleAllVisits]) != 1 {
		t.Errorf("dropped = %+v", res.Dropped)
	}
	if res.Stats.NonNumericIDs != 1 {
		t.Errorf("non-numeric = %d, want 1", res.Stats.NonNumericIDs)
	}
	log := buf.String()
	for _, want := range []string{"parsed input", "linked memo notes", "non-numeric patient ids", "reconciliation complete"} {
		if !strings.Contains(log, want) {
			t.Errorf("log missing %q", want)
		}
	}
}

func TestResult_Preview(t *testing.T) {
	res := &Result{Records: make([]OutputRecord, 12)}
	if got := len(res.Preview(10)); got != 10 {
		t.Errorf("len(preview) = %d, want 10", got)
	}
	if got := len(res.Preview(0)); got != 12 {
		t.Errorf("len(preview(0)) = %d, want 12", got)
	}
}

func TestInputs_SetAndMissing(t *testing.T) {
	var in Inputs
	in.Set(&Input{Role: RoleAllVisits})
	missing := in.Missing()
	if len(missing) != 3 || missing[2] != RoleBilledPatients {
		t.Errorf("missing = %v", missing)
	}
}

func TestDetectRole(t *testing.T) {
	tests := map[string]Role{
		"D_KJMK.csv":           RoleMemoNotes,
		"/tmp/d_knjm_2026.CSV": RolePatientMaster,
		"ikan.csv":             RoleBilledPatients,
		"knall.csv":            RoleAllVisits,
	}
	for name, want := range tests {
		got, ok := DetectRole(name)
		if !ok || got != want {
			t.Errorf("DetectRole(%q) = %q, %v; want %q", name, got, ok, want)
		}
	}
	if _, ok := DetectRole("report.csv"); ok {
		t.Error("expected unknown file to have no role")
	}
}
