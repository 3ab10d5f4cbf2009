package content

import (
	"fmt"
	"strconv"
	"strings"

	"go_4_interview_prep/internal/model"

	"github.com/xuri/excelize/v2"
)

const DefaultSheetName = "Topics"

// XLSXの列 (1行目はヘッダー)
//
//	A: company_name  B: track title  C: total_days  D: day  E: topic id  F: topic title  G: tasks ("|" 区切り)
const (
	colCompany = iota
	colTrackTitle
	colTotalDays
	colDay
	colTopicID
	colTopicTitle
	colTasks
	columnCount
)

// LoadXLSX は1行1トピックのシートからトラックを組み立てる。
// 同じ会社の行は1つのトラックにまとめ、最初に現れた順で返す。
func LoadXLSX(path, sheet string) ([]model.Track, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open content workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheet, err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]model.Track, error) {
	byCompany := map[string]*model.Track{}
	var order []string

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if isBlank(row) {
			continue
		}
		cells := make([]string, columnCount)
		for c := 0; c < columnCount && c < len(row); c++ {
			cells[c] = strings.TrimSpace(row[c])
		}

		rowNum := i + 1
		company := cells[colCompany]
		if company == "" {
			return nil, fmt.Errorf("row %d: company_name is empty", rowNum)
		}
		day, err := strconv.Atoi(cells[colDay])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid day %q", rowNum, cells[colDay])
		}

		track, ok := byCompany[company]
		if !ok {
			totalDays, err := strconv.Atoi(cells[colTotalDays])
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid total_days %q", rowNum, cells[colTotalDays])
			}
			track = &model.Track{CompanyName: company, Title: cells[colTrackTitle], TotalDays: totalDays}
			byCompany[company] = track
			order = append(order, company)
		}

		track.Topics = append(track.Topics, model.Topic{
			ID:    cells[colTopicID],
			Day:   day,
			Title: cells[colTopicTitle],
			Tasks: splitTasks(cells[colTasks]),
		})
	}

	tracks := make([]model.Track, 0, len(order))
	for _, name := range order {
		tracks = append(tracks, *byCompany[name])
	}
	return tracks, nil
}

func splitTasks(s string) []string {
	tasks := []string{}
	for _, part := range strings.Split(s, "|") {
		if p := strings.TrimSpace(part); p != "" {
			tasks = append(tasks, p)
		}
	}
	return tasks
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
