// Package export renders slot boards as spreadsheets.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"slotdesk/internal/models"
	"slotdesk/internal/slots"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Slots"

var headers = []string{"Time", "Status", "Customer", "Service", "Notes"}

var statusColors = map[models.SlotStatus]string{
	models.SlotAvailable: "#E2EFDA",
	models.SlotBlocked:   "#D9D9D9",
	models.SlotBooked:    "#FCE4D6",
}

// WriteDayWorkbook writes the board of one date as an xlsx workbook: one row
// per slot followed by the day's statistics.
func WriteDayWorkbook(w io.Writer, board *models.Board) error {
	f, err := buildWorkbook(board)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// SaveDayWorkbook stores the workbook in dir and returns its path.
func SaveDayWorkbook(dir string, board *models.Board) (string, error) {
	// Создаем папку для экспорта, если не существует
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := buildWorkbook(board)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(dir, FileName(board))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return path, nil
}

func FileName(board *models.Board) string {
	return fmt.Sprintf("slots_%d_%s.xlsx", board.ProviderID, board.Date)
}

func buildWorkbook(board *models.Board) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	title := board.Date
	if d, err := time.Parse(models.DateLayout, board.Date); err == nil {
		title = fmt.Sprintf("%s (%s)", board.Date, models.WeekdayOf(d.Weekday()))
	}
	_ = f.SetCellValue(SheetName, "A1", fmt.Sprintf("Provider %d, %s", board.ProviderID, title))
	_ = f.MergeCell(SheetName, "A1", "E1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(SheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		_ = f.SetCellValue(SheetName, cell, h)
		_ = f.SetCellStyle(SheetName, cell, cell, headerStyle)
	}

	statusStyles := make(map[models.SlotStatus]int, len(statusColors))
	for status, color := range statusColors {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err == nil {
			statusStyles[status] = style
		}
	}

	row := 4
	for _, s := range board.Slots {
		values := []string{
			s.StartTime + "-" + s.EndTime,
			string(s.Status),
			s.CustomerInfo,
			s.ServiceType,
			s.Notes,
		}
		for col, v := range values {
			if v == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellStr(SheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("error writing slot row: %w", err)
			}
		}
		if style, ok := statusStyles[s.Status]; ok {
			statusCell, _ := excelize.CoordinatesToCellName(2, row)
			_ = f.SetCellStyle(SheetName, statusCell, statusCell, style)
		}
		row++
	}

	stats := slots.ComputeStats(board.Slots)
	row++
	for _, line := range []struct {
		label string
		value int
	}{
		{"Total", stats.TotalSlots},
		{"Available", stats.AvailableSlots},
		{"Booked", stats.BookedSlots},
		{"Blocked", stats.BlockedSlots},
	} {
		label, _ := excelize.CoordinatesToCellName(1, row)
		value, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(SheetName, label, line.label)
		_ = f.SetCellValue(SheetName, value, line.value)
		row++
	}

	// Настраиваем ширину колонок
	_ = f.SetColWidth(SheetName, "A", "B", 14)
	_ = f.SetColWidth(SheetName, "C", "E", 30)

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	return f, nil
}
