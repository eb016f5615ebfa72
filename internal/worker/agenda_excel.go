package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"turnero/internal/models"

	"github.com/xuri/excelize/v2"
)

var statusLabels = map[string]string{
	models.StatusPending:   "Pendiente",
	models.StatusConfirmed: "Confirmado",
	models.StatusCompleted: "Completado",
	models.StatusCancelled: "Cancelado",
}

// renderAgenda writes one workbook with a day-by-day agenda for the
// task's date range and returns the file path.
func (w *AgendaWorker) renderAgenda(ctx context.Context, task *models.ExportTask) (string, error) {
	if err := os.MkdirAll(w.exportPath, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	from, _ := time.Parse(models.DateLayout, task.FromDate)
	to, _ := time.Parse(models.DateLayout, task.ToDate)

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Agenda"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Agenda %s — %s", task.FromDate, task.ToDate))
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 13}})
	_ = f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	headers := []string{"Fecha", "Hora", "Paciente", "Teléfono", "Estado", "Pago", "Importe"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(sheetName, "A2", "G2", boldStyle)

	row := 3
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		date := day.Format(models.DateLayout)
		appts, err := w.db.ListAppointmentsByDate(ctx, date)
		if err != nil {
			return "", fmt.Errorf("load appointments for %s: %w", date, err)
		}
		for _, a := range appts {
			status := statusLabels[a.Status]
			if status == "" {
				status = a.Status
			}
			payment := "No pagado"
			if a.PaymentStatus == models.PaymentPaid {
				payment = "Pagado"
			}
			values := []any{a.Date, a.Time, a.PatientName, a.PatientPhone, status, payment, a.Cost}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				_ = f.SetCellValue(sheetName, cell, v)
			}
			row++
		}
	}

	_ = f.SetColWidth(sheetName, "A", "B", 12)
	_ = f.SetColWidth(sheetName, "C", "D", 24)
	_ = f.SetColWidth(sheetName, "E", "G", 14)

	fileName := fmt.Sprintf("agenda_%s_%s_%s.xlsx", task.FromDate, task.ToDate, time.Now().Format("20060102_150405"))
	filePath := filepath.Join(w.exportPath, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return filePath, nil
}
