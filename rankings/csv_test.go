package rankings

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseRankingCSVSuccess(t *testing.T) {
	csvData := "player_id,rank,name\n" +
		"101,1,\"Messi, Lionel\"\n" +
		"202,2,\n"

	rows, err := ParseRankingCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("expected parse to succeed, got error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ID != 101 || rows[0].Rank != 1 || rows[0].Name != "Messi, Lionel" {
		t.Fatalf("unexpected first row parsed: %+v", rows[0])
	}
	if rows[1].Name != "" {
		t.Fatalf("expected empty name cell to parse as empty, got %q", rows[1].Name)
	}
}

func TestParseRankingCSVMissingRequiredColumn(t *testing.T) {
	csvData := `rank,name
1,Someone
`

	_, err := ParseRankingCSV(strings.NewReader(csvData))
	if err == nil {
		t.Fatal("expected missing required column error, got nil")
	}
}

func TestParseRankingCSVBadInteger(t *testing.T) {
	_, err := ParseRankingCSV(strings.NewReader("player_id,rank\nabc,1\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2 player_id") {
		t.Fatalf("expected line-numbered error, got %v", err)
	}
}

func TestWriteRankingCSVReadsBack(t *testing.T) {
	rows, err := Rank(1, threePlayerIndex(), DefaultWeights())
	if err != nil {
		t.Fatalf("rank: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteRankingCSV(&buf, rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	parsed, err := ParseRankingCSV(&buf)
	if err != nil {
		t.Fatalf("parse written csv: %v", err)
	}
	if err := ValidateRanking(parsed); err != nil {
		t.Fatalf("written ranking should validate: %v", err)
	}
	if len(parsed) != len(rows) || parsed[1].Name != "Ben Beta" {
		t.Fatalf("unexpected rows read back: %+v", parsed)
	}
}
