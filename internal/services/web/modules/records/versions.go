package records

import (
	"sort"
	"strings"
	"time"

	"github.com/mscwg/catalog/internal/services/web/templates"
)

// Version display statuses.
const (
	statusCurrent    = "current"
	statusDeprecated = "deprecated"
	statusProposed   = "proposed"
)

// versionViews prepares scheme versions for display. Each version is
// classified by its validity window and publication dates; when several
// versions qualify as current, only the most recent keeps the label and
// the rest show as deprecated.
func versionViews(versions []map[string]any) []templates.VersionView {
	today := time.Now().UTC().Format("2006-01-02")
	type classified struct {
		view templates.VersionView
		date string
	}
	items := make([]classified, 0, len(versions))
	for _, version := range versions {
		number := docString(version, "number")
		if number == "" {
			number = docString(version, "title")
		}
		if number == "" {
			continue
		}
		date, status := versionStatus(version, today)
		view := templates.VersionView{
			Number: number,
			Status: status,
			Date:   date,
			Note:   noteText(version),
		}
		items = append(items, classified{view: view, date: date})
	}

	// Newest first.
	sort.SliceStable(items, func(i, j int) bool { return items[i].date > items[j].date })

	sawCurrent := false
	out := make([]templates.VersionView, 0, len(items))
	for _, item := range items {
		if item.view.Status == statusCurrent {
			if sawCurrent {
				item.view.Status = statusDeprecated
			}
			sawCurrent = true
		}
		out = append(out, item.view)
	}
	return out
}

// versionStatus returns the display date and status for one version.
func versionStatus(version map[string]any, today string) (string, string) {
	if valid, ok := version["valid"].(map[string]any); ok {
		start := docString(valid, "start")
		end := docString(valid, "end")
		switch {
		case end != "" && end < today:
			return start, statusDeprecated
		case start != "" && start <= today:
			return start, statusCurrent
		case start != "":
			return start, statusProposed
		}
	}
	date := docString(version, "issued")
	if date == "" {
		date = docString(version, "available")
	}
	if date == "" {
		return "", statusProposed
	}
	if date <= today {
		return date, statusCurrent
	}
	return date, statusProposed
}

// noteText flattens a version note to plain text for the compact listing.
func noteText(version map[string]any) string {
	note := docString(version, "note")
	if note == "" {
		return ""
	}
	replacer := strings.NewReplacer("<p>", "", "</p>", " ", "<br>", " ")
	return strings.TrimSpace(replacer.Replace(note))
}
