// Package export writes the device list as CSV.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
)

// ErrNothingToExport is returned for an empty device list.
var ErrNothingToExport = errors.New("no devices to export")

// Header is the CSV header row.
var Header = []string{
	"Status", "No", "Location", "Model", "Serial", "IP",
	"Toner(Black)", "Toner(Cyan)", "Toner(Magenta)", "Toner(Yellow)", "Pages",
}

// FileName returns the default export file name for now.
func FileName(now time.Time) string {
	return "printer_scanner_" + now.Format("2006-01-02") + ".csv"
}

// WriteCSV writes a header and one row per device, returning the number of
// rows written including the header.
func WriteCSV(w io.Writer, devices []api.Device) (int, error) {
	if len(devices) == 0 {
		return 0, ErrNothingToExport
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	rows := 1
	for i, d := range devices {
		if err := cw.Write(record(i, d)); err != nil {
			return rows, fmt.Errorf("write row %d: %w", i+1, err)
		}
		rows++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flush csv: %w", err)
	}
	return rows, nil
}

func record(i int, d api.Device) []string {
	row := []string{
		string(d.NormalizedStatus()),
		strconv.Itoa(i + 1),
		clean(d.Name),
		clean(d.Model),
		clean(d.Serial),
		clean(d.IP),
	}
	for _, ch := range api.Channels {
		row = append(row, strconv.Itoa(d.TonerPercent(ch))+"%")
	}
	return append(row, strconv.Itoa(d.PageCount))
}

// clean replaces commas so spreadsheet tools never split a field.
func clean(s string) string {
	return strings.ReplaceAll(api.Display(s), ",", " ")
}
