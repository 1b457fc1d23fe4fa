package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// CallSummary is the post-call report printed after hang-up.
type CallSummary struct {
	RoomID          string
	Duration        time.Duration
	PacketsSent     uint32
	PacketsReceived uint32
	BytesSent       uint64
	BytesReceived   uint64
}

// RenderCallSummary prints the call report as a table.
func RenderCallSummary(s CallSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Room", s.RoomID},
		{"Duration", s.Duration.Round(time.Second).String()},
		{"Audio sent", fmt.Sprintf("%s (%d packets)", formatBytes(s.BytesSent), s.PacketsSent)},
		{"Audio received", fmt.Sprintf("%s (%d packets)", formatBytes(s.BytesReceived), s.PacketsReceived)},
	})
	t.Render()
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
