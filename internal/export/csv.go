// Package export writes combined tables to flat files.
package export

import (
	"encoding/csv"
	"os"

	"github.com/swissjobmarket/jobscan/internal/collector"
	"github.com/swissjobmarket/jobscan/internal/schema"
)

// WriteCSV writes the table to path: header row with the table's columns in
// order, one row per record. A filesystem failure here is fatal to the run.
func WriteCSV(t *schema.Table, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return collector.NewError(collector.ErrCodeExportWrite, "", "failed to create "+path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(t.Columns()); err != nil {
		return collector.NewError(collector.ErrCodeExportWrite, "", "failed to write header", err)
	}

	for i := 0; i < t.Len(); i++ {
		if err := writer.Write(t.Row(i)); err != nil {
			return collector.NewError(collector.ErrCodeExportWrite, "", "failed to write row", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return collector.NewError(collector.ErrCodeExportWrite, "", "failed to flush "+path, err)
	}
	return nil
}
