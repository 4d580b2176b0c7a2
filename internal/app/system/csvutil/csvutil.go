// internal/app/system/csvutil/csvutil.go
package csvutil

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/fleethub/internal/domain/models"
)

// MaxExportRows caps how many rows an export endpoint will emit in one file.
const MaxExportRows = 20000

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// WriteServiceRecords writes records as CSV with a header row. Parts are
// joined with "; " so each record stays on one line.
func WriteServiceRecords(w io.Writer, records []models.ServiceRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{
		"date", "performed_by", "description",
		"hours_at_service", "next_service_hours", "parts",
	}); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write([]string{
			formatTime(rec.CreatedAt),
			rec.PerformedBy,
			rec.Description,
			formatHours(rec.HoursAtService),
			formatHours(rec.NextServiceHours),
			strings.Join(rec.Parts, "; "),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFuelEntries writes an organization's fuel ledger as CSV with a header
// row. The machine column holds the machine id hex, or is empty for entries
// (like deliveries) that name no machine.
func WriteFuelEntries(w io.Writer, entries []models.FuelEntry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{
		"date", "kind", "amount", "operator", "machine_id", "note",
	}); err != nil {
		return err
	}
	for _, e := range entries {
		machine := ""
		if e.MachineID != nil {
			machine = e.MachineID.Hex()
		}
		if err := cw.Write([]string{
			formatTime(e.CreatedAt),
			e.Kind,
			formatHours(e.Amount),
			e.OperatorName,
			machine,
			e.Note,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
