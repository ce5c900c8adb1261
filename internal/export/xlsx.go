package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"rollcall/internal/roster"
)

// Filename is the download name for the roster workbook.
const Filename = "attendance.xlsx"

// ContentType is the xlsx MIME type.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the single worksheet holding the roster.
const SheetName = "Attendance"

var headers = []string{"Name", "Roll Number", "Status", "Total Classes", "Classes Attended", "Phone Number"}

// Roster renders the records into an xlsx workbook. The output is a pure
// transform of the input: identical records produce identical content.
func Roster(records []roster.StudentRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, err
		}
	}

	for i, rec := range records {
		status := string(rec.Status)
		if status == "" {
			status = "N/A"
		}
		phone := ""
		if rec.PhoneNumber != nil {
			phone = *rec.PhoneNumber
		}
		values := []any{rec.Name, rec.RollNumber, status, rec.TotalClasses, rec.ClassesAttended, phone}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
