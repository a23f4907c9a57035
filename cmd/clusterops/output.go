package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/usecase/lifecycle"
)

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorAmber = lipgloss.Color("#f59e0b")
	colorDim   = lipgloss.Color("#6b7280")

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// isInteractiveTTY reports whether w is a terminal.
func isInteractiveTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// renderTable writes rows under headers. Terminals get a styled table, anything
// else gets tab-aligned plain text.
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	if !isInteractiveTTY(w) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
		for _, r := range rows {
			fmt.Fprintln(tw, strings.Join(r, "\t"))
		}
		return tw.Flush()
	}
	statusCol := -1
	for i, h := range headers {
		if h == "STATUS" {
			statusCol = i
		}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == statusCol && row >= 0 && row < len(rows) {
				return cellStyle.Foreground(statusColor(rows[row][col]))
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func statusColor(s string) lipgloss.TerminalColor {
	switch model.InstanceStatus(s) {
	case model.StatusRunning:
		return colorGreen
	case model.StatusStopped, model.StatusPending:
		return colorAmber
	case model.StatusTerminated:
		return colorDim
	case model.StatusUnknown:
		return colorRed
	}
	return lipgloss.NoColor{}
}

// renderStatusRows prints instance rows. Status is omitted when none of the
// rows carry one.
func renderStatusRows(w io.Writer, rows []lifecycle.StatusRow) error {
	live := false
	for _, r := range rows {
		if r.Status != "" {
			live = true
			break
		}
	}
	headers := []string{"NAME", "KIND", "PROVIDER", "PROVIDER_INSTANCE_ID", "IP_ADDRESS", "INSTANCE_ID"}
	if live {
		headers = append([]string{"NAME", "STATUS"}, headers[1:]...)
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		line := []string{r.Name, string(r.Kind), r.Provider, r.ProviderInstanceID, r.IPAddress, r.InstanceID}
		if live {
			line = append([]string{r.Name, string(r.Status)}, line[1:]...)
		}
		out = append(out, line)
	}
	return renderTable(w, headers, out)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// instanceIPs formats instance addresses for summary lines.
func instanceIPs(insts []*model.Instance) string {
	ips := make([]string, 0, len(insts))
	for _, inst := range insts {
		ips = append(ips, inst.IPAddress)
	}
	return strings.Join(ips, ", ")
}
