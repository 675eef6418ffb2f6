package parser

import "testing"

func mustTable(t *testing.T, text string, mode HeaderMode) *Table {
	t.Helper()
	table, err := ReadTable([]byte(text), mode)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	return table
}

func TestProjectMemoNotes(t *testing.T) {
	table := mustTable(t, "ID,KNJ_KNR_NO,NAIYO\n1,K1,note1\n2,,orphan\n3,K3\n4\n", WithHeader)
	p := ProjectMemoNotes(table)

	if len(p.Rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(p.Rows))
	}
	if p.Rows[0] != (MemoNote{InternalKey: "K1", MemoText: "note1"}) {
		t.Errorf("rows[0] = %+v", p.Rows[0])
	}
	// NAIYO is optional
	if p.Rows[1] != (MemoNote{InternalKey: "K3"}) {
		t.Errorf("rows[1] = %+v", p.Rows[1])
	}
	if len(p.Dropped) != 2 {
		t.Fatalf("len(dropped) = %d, want 2", len(p.Dropped))
	}
	if p.Dropped[0].Line != 3 || p.Dropped[1].Line != 5 {
		t.Errorf("dropped lines = %d, %d", p.Dropped[0].Line, p.Dropped[1].Line)
	}
}

func TestProjectPatientMaster(t *testing.T) {
	table := mustTable(t, "KNJ_KNR_NO,KARUTE_NO,SIMEI\nK1,0100,田中\nK2,  ,佐藤\nK3,300\n", WithHeader)
	p := ProjectPatientMaster(table)

	if len(p.Rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(p.Rows))
	}
	// values are kept verbatim; leading zeros survive
	if p.Rows[0].PatientID != "0100" || p.Rows[0].Name != "田中" {
		t.Errorf("rows[0] = %+v", p.Rows[0])
	}
	if p.Rows[1].PatientID != "300" || p.Rows[1].Name != "" {
		t.Errorf("rows[1] = %+v", p.Rows[1])
	}
	if len(p.Dropped) != 1 || p.Dropped[0].Reason != "missing KARUTE_NO" {
		t.Errorf("dropped = %+v", p.Dropped)
	}
}

func TestProjectVisits_DiscardsFirstRowRegardless(t *testing.T) {
	// first row looks like data but is still treated as the label row
	table := mustTable(t, "100,x,田中\n200,x,佐藤\n,x,nobody\n300\n", Headerless)
	p := ProjectVisits(table, RoleAllVisits)

	if len(p.Rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(p.Rows))
	}
	if p.Rows[0] != (VisitRecord{PatientID: "200", Name: "佐藤", Source: RoleAllVisits}) {
		t.Errorf("rows[0] = %+v", p.Rows[0])
	}
	if p.Rows[1] != (VisitRecord{PatientID: "300", Source: RoleAllVisits}) {
		t.Errorf("rows[1] = %+v", p.Rows[1])
	}
	if len(p.Dropped) != 1 || p.Dropped[0].Line != 3 {
		t.Errorf("dropped = %+v", p.Dropped)
	}
}

func TestProjectVisits_Empty(t *testing.T) {
	p := ProjectVisits(mustTable(t, "", Headerless), RoleBilledPatients)
	if len(p.Rows) != 0 || len(p.Dropped) != 0 {
		t.Errorf("projection = %+v, want empty", p)
	}
}
