// Package export renders attendance registers as xlsx workbooks.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"classattend/internal/model"
)

// RegisterRow is one student line of a lecture register.
type RegisterRow struct {
	RollNumber string
	Student    string
	Status     model.Status
	MarkedAt   time.Time
}

var registerHeader = []string{"Roll number", "Student", "Status", "Marked at"}

// BuildRegister builds a one-sheet workbook listing every attendance record
// of a lecture.
func BuildRegister(lecture model.Lecture, subjectCode string, rows []RegisterRow) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := fmt.Sprintf("%s %s", subjectCode, lecture.Date.Format("2006-01-02"))
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for col, h := range registerHeader {
		cell := fmt.Sprintf("%s1", colName(col+1))
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	end := colName(len(registerHeader)) + "1"
	_ = f.SetCellStyle(sheet, "A1", end, bold)
	_ = f.AutoFilter(sheet, "A1:"+end, nil)

	for i, row := range rows {
		values := []string{
			row.RollNumber,
			row.Student,
			string(row.Status),
			row.MarkedAt.UTC().Format(time.RFC3339),
		}
		for c, val := range values {
			cell := fmt.Sprintf("%s%d", colName(c+1), i+2)
			if err := f.SetCellStr(sheet, cell, val); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	for c := 1; c <= len(registerHeader); c++ {
		_ = f.SetColWidth(sheet, colName(c), colName(c), 22)
	}
	return f, nil
}

func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}
