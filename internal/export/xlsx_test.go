package export

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"rollcall/internal/roster"
)

func sampleRoster() []roster.StudentRecord {
	phone := "+910000000000"
	return []roster.StudentRecord{
		{Name: "Asha", RollNumber: "21CS01", Status: roster.StatusPresent, TotalClasses: 12, ClassesAttended: 10, PhoneNumber: &phone},
		{Name: "Ravi", RollNumber: "21CS02", Status: roster.StatusAbsent, TotalClasses: 12, ClassesAttended: 8},
		{Name: "Meera", RollNumber: "21CS03", TotalClasses: 0, ClassesAttended: 0},
	}
}

func readRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("read sheet %q: %v", SheetName, err)
	}
	return rows
}

func TestRosterContent(t *testing.T) {
	data, err := Roster(sampleRoster())
	if err != nil {
		t.Fatalf("Roster() error = %v", err)
	}

	rows := readRows(t, data)
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(rows))
	}
	wantHeader := []string{"Name", "Roll Number", "Status", "Total Classes", "Classes Attended", "Phone Number"}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Errorf("header = %v, want %v", rows[0], wantHeader)
	}
	if rows[1][0] != "Asha" || rows[1][2] != "present" || rows[1][3] != "12" || rows[1][5] != "+910000000000" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][2] != "absent" || rows[2][4] != "8" {
		t.Errorf("row 2 = %v", rows[2])
	}
	// Unset status renders as N/A, like the roster view does.
	if rows[3][2] != "N/A" {
		t.Errorf("row 3 status = %q, want N/A", rows[3][2])
	}
}

func TestRosterDeterministic(t *testing.T) {
	recs := sampleRoster()
	a, err := Roster(recs)
	if err != nil {
		t.Fatalf("Roster() error = %v", err)
	}
	b, err := Roster(recs)
	if err != nil {
		t.Fatalf("Roster() error = %v", err)
	}
	if !reflect.DeepEqual(readRows(t, a), readRows(t, b)) {
		t.Error("identical input produced different tabular content")
	}
}

func TestRosterEmpty(t *testing.T) {
	data, err := Roster(nil)
	if err != nil {
		t.Fatalf("Roster() error = %v", err)
	}
	rows := readRows(t, data)
	if len(rows) != 1 {
		t.Errorf("rows = %d, want header only", len(rows))
	}
}
