package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Icons and symbols for different log types
const (
	IconSuccess  = "✅"
	IconError    = "❌"
	IconWarning  = "⚠️"
	IconInfo     = "ℹ️"
	IconRocket   = "🚀"
	IconConfig   = "⚙️"
	IconTime     = "⏱️"
	IconFolder   = "📁"
	IconFile     = "📄"
	IconRefresh  = "🔄"
	IconDatabase = "🗄️"
	IconRadar    = "📡"
	IconAircraft = "✈️"
	IconUFO      = "🛸"
	IconMissile  = "🚀"
	IconFuel     = "⛽"
	IconTarget   = "🎯"
	IconBoom     = "💥"
	IconShield   = "🛡️"
	IconCheck    = "✓"
	IconCross    = "✗"
	IconDot      = "•"
	IconArrow    = "→"
)

var (
	sectionColor    = color.New(color.FgCyan)
	sectionBold     = color.New(color.FgCyan, color.Bold)
	subsectionColor = color.New(color.FgHiBlack)
	keyColor        = color.New(color.FgCyan)
)

// console returns the writer and color setting of the global logger for the
// formatted helpers below.
func console() (io.Writer, bool) {
	if s := defaultSink(); s != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.writer, s.noColor
	}
	return os.Stdout, true
}

func paint(c *color.Color, noColor bool, text string) string {
	if noColor {
		return text
	}
	return c.Sprint(text)
}

// Success logs a success message with a green checkmark
func Success(args ...interface{}) {
	defaultLogger.Info(IconSuccess + " " + fmt.Sprint(args...))
}

// Successf logs a formatted success message
func Successf(format string, args ...interface{}) {
	Success(fmt.Sprintf(format, args...))
}

// Progress logs a progress message with a refresh icon
func Progress(args ...interface{}) {
	defaultLogger.Info(IconRefresh + " " + fmt.Sprint(args...))
}

// Progressf logs a formatted progress message
func Progressf(format string, args ...interface{}) {
	Progress(fmt.Sprintf(format, args...))
}

// Storage logs a persistence message
func Storage(args ...interface{}) {
	defaultLogger.Info(IconDatabase + " " + fmt.Sprint(args...))
}

// Storagef logs a formatted persistence message
func Storagef(format string, args ...interface{}) {
	Storage(fmt.Sprintf(format, args...))
}

// LogSection creates a visual section separator
func LogSection(title string) {
	w, noColor := console()
	line := strings.Repeat("=", 50)
	fmt.Fprintln(w, paint(sectionColor, noColor, line))
	fmt.Fprintln(w, paint(sectionBold, noColor, title))
	fmt.Fprintln(w, paint(sectionColor, noColor, line))
}

// LogSubSection creates a visual subsection separator
func LogSubSection(title string) {
	w, noColor := console()
	line := strings.Repeat("-", 40)
	fmt.Fprintln(w, paint(subsectionColor, noColor, line))
	fmt.Fprintln(w, paint(subsectionColor, noColor, title))
	fmt.Fprintln(w, paint(subsectionColor, noColor, line))
}

// LogList logs a list of items with bullets
func LogList(title string, items []string) {
	Info(title)
	w, _ := console()
	for _, item := range items {
		fmt.Fprintf(w, "  %s %s\n", IconDot, item)
	}
}

// LogKeyValue logs a key-value pair with nice formatting
func LogKeyValue(key string, value interface{}) {
	w, noColor := console()
	fmt.Fprintf(w, "%s %v\n", paint(keyColor, noColor, key+":"), value)
}

// LogKeyValues logs multiple key-value pairs in key order
func LogKeyValues(pairs map[string]interface{}) {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		LogKeyValue(k, pairs[k])
	}
}

// Table represents a simple table for logging
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a new table
func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    [][]string{},
	}
}

// AddRow adds a row to the table
func (t *Table) AddRow(values ...string) {
	t.rows = append(t.rows, values)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Print prints the table to the global logger's output
func (t *Table) Print() {
	w, _ := console()
	t.Fprint(w)
}

// Fprint writes the table to w
func (t *Table) Fprint(w io.Writer) {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for i, h := range t.headers {
		fmt.Fprintf(&b, "%-*s  ", widths[i], h)
	}
	b.WriteString("\n")
	for i := range t.headers {
		b.WriteString(strings.Repeat("-", widths[i]) + "  ")
	}
	b.WriteString("\n")
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(&b, "%-*s  ", widths[i], cell)
			}
		}
		b.WriteString("\n")
	}
	_, _ = io.WriteString(w, b.String())
}
