package rankings

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseRankingCSV reads a player_id,rank[,name] file. Rows are returned in
// file order; ValidateRanking is the caller's job.
func ParseRankingCSV(reader io.Reader) ([]RankedPlayer, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv must include a header row and at least one data row")
	}

	headers := make(map[string]int, len(records[0]))
	for idx, col := range records[0] {
		headers[strings.ToLower(strings.TrimSpace(col))] = idx
	}

	required := []string{"player_id", "rank"}
	for _, col := range required {
		if _, ok := headers[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	rows := make([]RankedPlayer, 0, len(records)-1)
	for i, record := range records[1:] {
		lineNo := i + 2

		playerID, err := readInt(record, headers["player_id"])
		if err != nil {
			return nil, fmt.Errorf("line %d player_id: %w", lineNo, err)
		}
		rank, err := readInt(record, headers["rank"])
		if err != nil {
			return nil, fmt.Errorf("line %d rank: %w", lineNo, err)
		}

		var name string
		if idx, ok := headers["name"]; ok {
			name = strings.TrimSpace(readValue(record, idx))
		}

		rows = append(rows, RankedPlayer{ID: playerID, Rank: rank, Name: name})
	}

	return rows, nil
}

// WriteRankingCSV writes rows in the format ParseRankingCSV reads.
func WriteRankingCSV(w io.Writer, rows []RankedPlayer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"player_id", "rank", "name"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{strconv.Itoa(r.ID), strconv.Itoa(r.Rank), r.Name}); err != nil {
			return fmt.Errorf("write csv row player_id=%d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func readInt(record []string, idx int) (int, error) {
	value := strings.TrimSpace(readValue(record, idx))
	if value == "" {
		return 0, fmt.Errorf("value is required")
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", value)
	}
	return parsed, nil
}

func readValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
