package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/eqlog/eqlog-go/pkg/eqlog"
	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

// ValidFormats lists all valid output formats.
var ValidFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
}

func validateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("unknown format: %s (valid: jsonl, pretty)", format)
	}
	return nil
}

// OutputEvent writes an event in the specified format to the writer.
// The raw line is dropped unless includeRaw is set.
func OutputEvent(format string, ev event.CombatEvent, includeRaw bool, out io.Writer) error {
	if !includeRaw {
		ev.RawLine = ""
	}
	switch format {
	case "jsonl":
		return writeJSON(ev, out)
	case "pretty":
		return OutputPretty(ev, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(v any, out io.Writer) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// OutputPretty writes an event in human-readable format.
func OutputPretty(ev event.CombatEvent, out io.Writer) error {
	ts := ev.Timestamp.Format("15:04:05")

	var err error
	switch ev.Kind {
	case event.Miss:
		_, err = fmt.Fprintf(out, "[%s] x %s missed\n", ts, ev.ActorKey())
	case event.Heal:
		_, err = fmt.Fprintf(out, "[%s] + %s healed %s for %d%s\n",
			ts, orDash(ev.Source), ev.Target, ev.Amount, critMark(ev))
	case event.Spell:
		_, err = fmt.Fprintf(out, "[%s] * %s hit %s for %d%s\n",
			ts, ev.SpellName, ev.Target, ev.Amount, critMark(ev))
	default:
		_, err = fmt.Fprintf(out, "[%s] - %s hit %s for %d (%s)%s\n",
			ts, orDash(ev.Source), ev.Target, ev.Amount, ev.Kind, critMark(ev))
	}
	if err == nil && ev.RawLine != "" {
		_, err = fmt.Fprintf(out, "           %s\n", ev.RawLine)
	}
	return err
}

// OutputZone writes a zone change in the specified format.
func OutputZone(format string, zc eqlog.ZoneChange, out io.Writer) error {
	if format == "jsonl" {
		return writeJSON(struct {
			Timestamp time.Time `json:"ts"`
			Zone      string    `json:"zone"`
		}{zc.Timestamp, zc.Zone}, out)
	}
	_, err := fmt.Fprintf(out, "[%s] > Entered %s\n", zc.Timestamp.Format("15:04:05"), zc.Zone)
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func critMark(ev event.CombatEvent) string {
	if ev.IsCritical {
		return " CRIT"
	}
	return ""
}

// sortedSnapshots orders snapshots by DPS, highest first, then by name.
// top limits the result when positive.
func sortedSnapshots(snaps eqlog.Snapshots, top int) []eqlog.DpsSnapshot {
	list := make([]eqlog.DpsSnapshot, 0, len(snaps))
	for _, s := range snaps {
		list = append(list, s)
	}
	slices.SortFunc(list, func(a, b eqlog.DpsSnapshot) int {
		if c := cmp.Compare(b.DPS, a.DPS); c != 0 {
			return c
		}
		return strings.Compare(a.ActorName, b.ActorName)
	})
	if top > 0 && len(list) > top {
		list = list[:top]
	}
	return list
}

// OutputSnapshots writes one publisher tick.
func OutputSnapshots(format string, snaps eqlog.Snapshots, top int, at time.Time, out io.Writer) error {
	list := sortedSnapshots(snaps, top)
	switch format {
	case "jsonl":
		return writeJSON(struct {
			Timestamp time.Time           `json:"ts"`
			Actors    []eqlog.DpsSnapshot `json:"actors"`
		}{at, list}, out)
	case "pretty":
		_, err := fmt.Fprintln(out, renderTable(list, at))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	cellStyle  = lipgloss.NewStyle().PaddingRight(2)
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type column struct {
	title string
	width int
	align lipgloss.Position
	value func(eqlog.DpsSnapshot) string
}

var snapshotColumns = []column{
	{"ACTOR", 20, lipgloss.Left, func(s eqlog.DpsSnapshot) string { return s.ActorName }},
	{"DAMAGE", 10, lipgloss.Right, func(s eqlog.DpsSnapshot) string { return strconv.FormatInt(s.TotalDamage, 10) }},
	{"DPS", 10, lipgloss.Right, func(s eqlog.DpsSnapshot) string { return strconv.FormatFloat(s.DPS, 'f', 1, 64) }},
	{"HITS", 6, lipgloss.Right, func(s eqlog.DpsSnapshot) string { return strconv.Itoa(s.HitCount) }},
	{"CRIT%", 7, lipgloss.Right, func(s eqlog.DpsSnapshot) string { return percent(s.CritRate()) }},
	{"MISS", 6, lipgloss.Right, func(s eqlog.DpsSnapshot) string { return strconv.Itoa(s.MissCount) }},
	{"HIT%", 7, lipgloss.Right, func(s eqlog.DpsSnapshot) string { return percent(s.HitRate()) }},
}

func percent(r float64) string {
	return strconv.FormatFloat(r*100, 'f', 1, 64)
}

func renderTable(list []eqlog.DpsSnapshot, at time.Time) string {
	rows := make([]string, 0, len(list)+2)
	rows = append(rows, titleStyle.Render("DPS "+at.Format("15:04:05")))

	header := make([]string, len(snapshotColumns))
	for i, c := range snapshotColumns {
		header[i] = cellStyle.Width(c.width + 2).Align(c.align).Render(headerStyle.Render(c.title))
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, header...))

	if len(list) == 0 {
		rows = append(rows, emptyStyle.Render("no combat in window"))
	}
	for _, s := range list {
		cells := make([]string, len(snapshotColumns))
		for i, c := range snapshotColumns {
			cells[i] = cellStyle.Width(c.width + 2).Align(c.align).Render(truncate(c.value(s), c.width))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
