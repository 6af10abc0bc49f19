package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	pmsettings "github.com/ParkChongsam/network-printer-scanner/common/settings"
	"github.com/ParkChongsam/network-printer-scanner/common/util"
)

// renderer prints devices as plain text tables.
type renderer struct {
	term *util.Terminal
}

var tonerColors = map[api.TonerChannel]string{
	api.Black:   util.ColorWhite,
	api.Cyan:    util.ColorCyan,
	api.Magenta: util.ColorMagenta,
	api.Yellow:  util.ColorYellow,
}

func statusColor(s api.Status) string {
	switch s {
	case api.StatusOffline:
		return util.ColorRed
	case api.StatusWarning:
		return util.ColorYellow
	default:
		return util.ColorGreen
	}
}

func (r *renderer) tonerCell(d api.Device) string {
	parts := make([]string, 0, len(api.Channels))
	for _, ch := range api.Channels {
		parts = append(parts, r.term.Colorize(tonerColors[ch], util.Bar(d.TonerPercent(ch), 4)))
	}
	return strings.Join(parts, " ") + fmt.Sprintf(" %3d%%", d.TonerPercent(api.Black))
}

// Table prints one row per device.
func (r *renderer) Table(devices []api.Device) {
	w := r.term.Writer()
	if len(devices) == 0 {
		fmt.Fprintln(w, "No devices.")
		return
	}

	header := []string{"Status", "#", "Name", "Model", "Serial", "IP", "Toner K C M Y", "Pages"}
	rows := make([][]string, 0, len(devices))
	for i, d := range devices {
		status := d.NormalizedStatus()
		rows = append(rows, []string{
			r.term.Colorize(statusColor(status), string(status)),
			strconv.Itoa(i + 1),
			util.Truncate(api.Display(d.Name), 24),
			util.Truncate(api.Display(d.Model), 28),
			util.Truncate(api.Display(d.Serial), 16),
			d.IP,
			r.tonerCell(d),
			strconv.Itoa(d.PageCount),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = util.VisibleWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := util.VisibleWidth(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	printRow := func(cells []string) {
		padded := make([]string, len(cells))
		for i, c := range cells {
			padded[i] = util.PadRight(c, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(padded, "  "), " "))
	}
	printRow(header)
	for _, row := range rows {
		printRow(row)
	}
	fmt.Fprintf(w, "%d devices\n", len(devices))
}

// Detail prints every field of one device.
func (r *renderer) Detail(d api.Device) {
	w := r.term.Writer()
	status := d.NormalizedStatus()
	fields := [][2]string{
		{"IP", d.IP},
		{"Name", api.Display(d.Name)},
		{"Model", api.Display(d.Model)},
		{"Serial", api.Display(d.Serial)},
		{"Location", api.Display(d.Location)},
		{"Contact", api.Display(d.Contact)},
		{"Uptime", api.Display(d.Uptime)},
		{"Status", r.term.Colorize(statusColor(status), string(status))},
		{"Pages", strconv.Itoa(d.PageCount)},
		{"Updated", api.Display(d.LastUpdate)},
	}
	for _, f := range fields {
		fmt.Fprintf(w, "%-10s %s\n", f[0]+":", f[1])
	}
	fmt.Fprintln(w, "Toner:")
	for _, ch := range api.Channels {
		lvl := api.DefaultTonerLevel()
		if d.Toner != nil {
			if t, ok := d.Toner[ch]; ok {
				lvl = t
			}
		}
		fmt.Fprintf(w, "  %-8s %s %3d%% (%d/%d)\n", ch,
			r.term.Colorize(tonerColors[ch], util.Bar(d.TonerPercent(ch), 20)),
			d.TonerPercent(ch), lvl.Level, lvl.Max)
	}
}

// Settings prints the settings with their descriptions.
func (r *renderer) Settings(cfg pmsettings.Settings) {
	w := r.term.Writer()
	for _, f := range pmsettings.Fields() {
		fmt.Fprintf(w, "%-14s %-18s %s\n", f.Key, f.Value(cfg), r.term.Colorize(util.ColorDim, f.Description))
	}
}
