// Package logging builds the structured logger shared by every blitz command.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	prefix = "blitz"
	width  = 5
)

// New returns a logger writing to w at Info level, or Debug when debug is set.
func New(debug bool, w io.Writer) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(w, log.Options{
		TimeFormat:      time.RFC3339,
		Level:           level,
		Prefix:          prefix,
		ReportTimestamp: true,
	})

	logger.SetStyles(defaultLogStyles())
	return logger
}

// ParseLevel maps a configured level name to a log level. Unknown names are Info.
func ParseLevel(name string) log.Level {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// defaultLogStyles returns the default styles, but with length 5 so nothing
// gets cut off.
func defaultLogStyles() *log.Styles {
	return &log.Styles{
		Timestamp: lipgloss.NewStyle(),
		Caller:    lipgloss.NewStyle().Faint(true),
		Prefix:    lipgloss.NewStyle().Bold(true).Faint(true),
		Message:   lipgloss.NewStyle(),
		Key:       lipgloss.NewStyle().Faint(true),
		Value:     lipgloss.NewStyle(),
		Separator: lipgloss.NewStyle().Faint(true),
		Levels: map[log.Level]lipgloss.Style{
			log.DebugLevel: levelStyle(log.DebugLevel, "63"),
			log.InfoLevel:  levelStyle(log.InfoLevel, "86"),
			log.WarnLevel:  levelStyle(log.WarnLevel, "192"),
			log.ErrorLevel: levelStyle(log.ErrorLevel, "204"),
			log.FatalLevel: levelStyle(log.FatalLevel, "134"),
		},
		Keys:   map[string]lipgloss.Style{},
		Values: map[string]lipgloss.Style{},
	}
}

func levelStyle(level log.Level, colour string) lipgloss.Style {
	return lipgloss.NewStyle().
		SetString(strings.ToUpper(level.String())).
		Bold(true).
		MaxWidth(width).
		Foreground(lipgloss.Color(colour))
}
