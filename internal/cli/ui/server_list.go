package ui

import (
	"fmt"
	"strings"

	"octopanel/internal/dashboard"
)

type serverItem struct {
	snap dashboard.Snapshot
}

func (i serverItem) FilterValue() string { return i.snap.Server.Name + " " + i.snap.Server.ID }

func (i serverItem) Title() string {
	return fmt.Sprintf("%s %s", statusIcon(i.snap.Status), i.snap.Server.Name)
}

func (i serverItem) Description() string {
	parts := []string{
		statusStyle(i.snap.Status).Render(i.snap.StatusLabel),
		"ID: " + i.snap.Server.ID,
		"Address: " + i.snap.Address,
	}

	switch {
	case i.snap.Unavailable != "":
		parts = append(parts, i.snap.Unavailable)
	case !i.snap.HasStats && i.snap.LastError != "":
		parts = append(parts, "Connection Error")
	case !i.snap.HasStats:
		parts = append(parts, "Loading...")
	default:
		parts = append(parts,
			gaugeSummary(i.snap.CPU),
			gaugeSummary(i.snap.Memory),
			gaugeSummary(i.snap.Disk),
		)
	}

	desc := strings.Join(parts, " • ")
	if i.snap.Updating {
		desc += " ↻"
	}
	return desc
}
