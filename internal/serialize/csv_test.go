package serialize

import (
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/jszwec/csvutil"

	"github.com/flarebyte/shiftlog/internal/record"
)

func rec(kv ...any) record.Record {
	var fs []record.Field
	for i := 0; i+1 < len(kv); i += 2 {
		fs = append(fs, record.Field{Key: kv[i].(string), Value: kv[i+1]})
	}
	return record.New(fs...)
}

func TestCSV_Empty(t *testing.T) {
	if _, err := CSV(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestCSV_HeaderAndLines(t *testing.T) {
	rows := []record.Record{
		rec("date", "2024-05-01", "machine", "M1", "quantity", 50, "id", "1"),
		rec("date", "2024-05-02", "machine", "M,2", "quantity", 2.5, "id", "2"),
		rec("date", "2024-05-03", "id", "3"),
	}
	out, err := CSV(rows)
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if !strings.HasPrefix(out, BOM) {
		t.Fatalf("missing BOM")
	}
	lines := strings.Split(strings.TrimPrefix(out, BOM), "\n")
	want := []string{
		"date,machine,quantity",
		"2024-05-01,M1,50",
		`2024-05-02,"M,2",2.5`,
		"2024-05-03,,",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: want %q got %q", i, want[i], lines[i])
		}
	}
}

func TestCSV_QuotesAreDoubled(t *testing.T) {
	out, err := CSV([]record.Record{rec("notes", `he said "hi"`, "plain", "x")})
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if got := strings.Split(out, "\n")[1]; got != `"he said ""hi""",x` {
		t.Fatalf("unexpected row: %q", got)
	}
}

type injectionRow struct {
	Date    string `csv:"date"`
	Name    string `csv:"employeeName"`
	Machine string `csv:"machine"`
	Notes   string `csv:"notes"`
}

func TestCSV_RoundTripWithStandardReader(t *testing.T) {
	in := []injectionRow{
		{Date: "2024-05-01", Name: "דנה כהן", Machine: "M1, hall \"B\"", Notes: "שורה ראשונה\nשורה שנייה"},
		{Date: "2024-05-01", Name: "Yossi", Machine: `"quoted"`, Notes: ""},
		{Date: "2024-05-02", Name: "מיכל", Machine: "מכונה 3", Notes: "a,b,c"},
	}
	rows := make([]record.Record, 0, len(in))
	for i, r := range in {
		rows = append(rows, rec("date", r.Date, "employeeName", r.Name, "machine", r.Machine, "notes", r.Notes, "id", string(rune('1'+i))))
	}
	out, err := CSV(rows)
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	dec, err := csvutil.NewDecoder(csv.NewReader(strings.NewReader(strings.TrimPrefix(out, BOM))))
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	var got []injectionRow
	if err := dec.Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("expected %d rows, got %d", len(in), len(got))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("row %d differs\nwant: %+v\n got: %+v", i, in[i], got[i])
		}
	}
}
