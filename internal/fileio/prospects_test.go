package fileio_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/funnelalchemy/prospect-scorer/internal/fileio"
	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/core"
)

func TestReadSettingsYAML(t *testing.T) {
	t.Parallel()

	in := `
industries:
  - saas
  - fintech
employee_range: "50-200"
`
	settings, err := fileio.ReadSettingsYAML(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadSettingsYAML: %v", err)
	}
	if settings["employee_range"] != "50-200" {
		t.Fatalf("unexpected settings: %v", settings)
	}

	empty, err := fileio.ReadSettingsYAML(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty settings: %v", err)
	}
	if empty == nil {
		t.Fatal("empty input must yield an empty map, not nil")
	}
}

func TestReadProspectsJSON(t *testing.T) {
	t.Parallel()

	in := `[
		{"prospect_id": "p1", "company": "Acme"},
		{"id": "p2", "title": "CTO"},
		{"prospect_id": 42, "company": "Globex"},
		{"company": "NoID Inc"}
	]`
	prospects, err := fileio.ReadProspectsJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadProspectsJSON: %v", err)
	}
	if len(prospects) != 4 {
		t.Fatalf("expected 4 prospects, got %d", len(prospects))
	}
	if prospects[0].ID != "p1" || prospects[0].Attrs["company"] != "Acme" {
		t.Fatalf("unexpected first prospect: %+v", prospects[0])
	}
	if prospects[1].ID != "p2" {
		t.Fatalf("id fallback key not honored: %+v", prospects[1])
	}
	if prospects[2].ID != "42" {
		t.Fatalf("numeric id not coerced: %+v", prospects[2])
	}
	if prospects[3].ID != "" {
		t.Fatalf("missing id must stay empty: %+v", prospects[3])
	}

	if _, err := fileio.ReadProspectsJSON(strings.NewReader(`{"not": "an array"}`)); err == nil {
		t.Fatal("expected error for non-array input")
	}
}

func TestReadProspectsCSV(t *testing.T) {
	t.Parallel()

	in := "id,company,title\np1,Acme,CTO\np2,Globex,\n"
	prospects, err := fileio.ReadProspectsCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadProspectsCSV: %v", err)
	}
	if len(prospects) != 2 {
		t.Fatalf("expected 2 prospects, got %d", len(prospects))
	}
	if prospects[0].ID != "p1" || prospects[0].Attrs["company"] != "Acme" || prospects[0].Attrs["title"] != "CTO" {
		t.Fatalf("unexpected first prospect: %+v", prospects[0])
	}
	if prospects[1].Attrs["title"] != "" {
		t.Fatalf("empty cell must stay empty: %+v", prospects[1])
	}
}

func TestReadProspectsCSV_AltIDColumn(t *testing.T) {
	t.Parallel()

	in := "Prospect_ID,company\npx,Initech\n"
	prospects, err := fileio.ReadProspectsCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadProspectsCSV: %v", err)
	}
	if len(prospects) != 1 || prospects[0].ID != "px" {
		t.Fatalf("prospect_id column not honored: %+v", prospects)
	}
}

func TestReadProspectsCSV_MissingIDColumn(t *testing.T) {
	t.Parallel()

	if _, err := fileio.ReadProspectsCSV(strings.NewReader("company,title\nAcme,CTO\n")); err == nil {
		t.Fatal("expected error for missing id column")
	}
}

func TestWriteResultsJSON(t *testing.T) {
	t.Parallel()

	results := []core.ScoringResult{
		{ProspectID: "p1", Score: 85, Justification: "fits"},
	}
	var buf bytes.Buffer
	if err := fileio.WriteResultsJSON(&buf, results); err != nil {
		t.Fatalf("WriteResultsJSON: %v", err)
	}

	var back []core.ScoringResult
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if len(back) != 1 || back[0] != results[0] {
		t.Fatalf("unexpected round trip: %+v", back)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Fatal("output should be indented")
	}
}
