package ui

import (
	"fmt"
	"strconv"
	"strings"

	"reconview/internal/catalog"
	"reconview/pkg/lifecycle"
	"reconview/pkg/results"

	"github.com/charmbracelet/lipgloss"
)

const (
	DefaultBarWidth = 30
	maxCellWidth    = 80
)

// ProgressBar renders progress (0-100) as a fixed width bar followed by the
// percentage.
func ProgressBar(progress, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := width * progress / 100

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < width; i++ {
		if i < filled {
			bar.WriteString(ProgressFullStyle.Render("#"))
		} else {
			bar.WriteString(ProgressEmptyStyle.Render("."))
		}
	}
	bar.WriteString("] ")
	bar.WriteString(strconv.Itoa(progress))
	bar.WriteString("%")
	return bar.String()
}

func stateStyle(s lifecycle.State) lipgloss.Style {
	switch s {
	case lifecycle.StateCompleted:
		return SuccessStyle
	case lifecycle.StateFailed:
		return ErrorStyle
	default:
		return WarningStyle
	}
}

func row(label, value string) string {
	return LabelStyle.Render(label) + value
}

// Snapshot renders the tracked job and any alert.
func Snapshot(snap lifecycle.Snapshot) string {
	var lines []string
	if snap.Alert != nil {
		lines = append(lines, ErrorStyle.Render(snap.Alert.Message))
	}
	if snap.Job == nil {
		lines = append(lines, MutedStyle.Render("No scan is being tracked"))
		return strings.Join(lines, "\n")
	}
	job := snap.Job
	lines = append(lines,
		row("Scan", job.ID),
		row("Target", job.Target),
		row("Tools", strings.Join(job.Tools, ", ")),
		row("Status", stateStyle(snap.State).Render(job.Status)),
		row("Progress", ProgressBar(job.Progress, DefaultBarWidth)),
	)
	return strings.Join(lines, "\n")
}

// Table lays rows out in left aligned columns sized to their widest cell.
func Table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i := range headers {
			if i < len(r) {
				if w := lipgloss.Width(clip(r[i])); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(padRight(HeaderStyle.Render(h), widths[i]+2))
	}
	for _, r := range rows {
		b.WriteString("\n")
		for i := range headers {
			cell := ""
			if i < len(r) {
				cell = clip(r[i])
			}
			b.WriteString(padRight(cell, widths[i]+2))
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func padRight(s string, width int) string {
	padding := width - lipgloss.Width(s)
	if padding <= 0 {
		return s
	}
	return s + strings.Repeat(" ", padding)
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= maxCellWidth {
		return s
	}
	return string(r[:maxCellWidth-3]) + "..."
}

// Tools lists the catalog grouped in catalog order.
func Tools(tools []catalog.Tool) string {
	rows := make([][]string, 0, len(tools))
	for _, t := range tools {
		def := ""
		if t.Default {
			def = "yes"
		}
		rows = append(rows, []string{t.Name, t.Category, def, t.Description})
	}
	return Table([]string{"Tool", "Category", "Default", "Description"}, rows)
}

// Category renders one category of v the way the dashboard shows it.
func Category(v results.Views, c results.Category) string {
	var b strings.Builder
	if v.LoadError != "" {
		b.WriteString(ErrorStyle.Render(v.LoadError))
		b.WriteString("\n")
	}

	switch c {
	case results.CategorySubdomains:
		rows := make([][]string, 0, len(v.Subdomains.Page.Items))
		for _, s := range v.Subdomains.Page.Items {
			rows = append(rows, []string{s.Subdomain, strings.Join(s.Tools, ", ")})
		}
		section(&b, "Subdomains", v.Subdomains.Label, v.Subdomains.Placeholder, []string{"Subdomain", "Tools"}, rows, v.Subdomains.Page.Number, v.Subdomains.Page.Total)
	case results.CategoryPorts:
		rows := make([][]string, 0, len(v.Ports.Page.Items))
		for _, p := range v.Ports.Page.Items {
			rows = append(rows, []string{p.IP, strconv.Itoa(p.Port), p.Protocol, orUnknown(p.Service), orUnknown(p.Version), p.State})
		}
		section(&b, "Ports", v.Ports.Label, v.Ports.Placeholder, []string{"IP", "Port", "Protocol", "Service", "Version", "State"}, rows, v.Ports.Page.Number, v.Ports.Page.Total)
	case results.CategoryURLs:
		rows := make([][]string, 0, len(v.URLs.Page.Items))
		for _, u := range v.URLs.Page.Items {
			rows = append(rows, []string{u.URL, strings.Join(u.Tools, ", ")})
		}
		section(&b, "URLs", v.URLs.Label, v.URLs.Placeholder, []string{"URL", "Tools"}, rows, v.URLs.Page.Number, v.URLs.Page.Total)
	case results.CategoryOther:
		b.WriteString(SectionStyle.Render(fmt.Sprintf("Other Findings (%d)", v.Other.Count)))
		b.WriteString("\n")
		if len(v.Other.Groups) == 0 {
			b.WriteString(MutedStyle.Render(v.Other.Placeholder))
		}
		for i, g := range v.Other.Groups {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(HeaderStyle.Render(fmt.Sprintf("%s (%d)", g.Title, g.Count)))
			for _, f := range g.Findings {
				b.WriteString("\n  " + clip(f.Text()) + " " + MutedStyle.Render("["+f.Tool+"]"))
			}
		}
	case results.CategoryErrors:
		b.WriteString(SectionStyle.Render("Errors"))
		b.WriteString("\n")
		if len(v.Errors.Items) == 0 {
			b.WriteString(MutedStyle.Render(v.Errors.Placeholder))
		}
		for i, e := range v.Errors.Items {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(ErrorStyle.Render(e.Tool) + ": " + e.Message)
		}
	}
	return b.String()
}

func section(b *strings.Builder, title, label, placeholder string, headers []string, rows [][]string, page, total int) {
	b.WriteString(SectionStyle.Render(title) + " " + MutedStyle.Render(label))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString(MutedStyle.Render(placeholder))
		return
	}
	b.WriteString(Table(headers, rows))
	if total > 1 {
		b.WriteString("\n")
		b.WriteString(MutedStyle.Render(fmt.Sprintf("Page %d of %d", page, total)))
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
