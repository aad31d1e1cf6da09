package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

// statusKind grades one line of the status report.
type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const statusLabelWidth = 18

// statusMarks prefix the message so plain output stays greppable.
var statusMarks = map[statusKind]string{
	statusInfo:  "",
	statusOK:    "ok",
	statusWarn:  "warn",
	statusError: "fail",
}

// Neutral lines carry no color.
var statusColors = map[statusKind]text.Colors{
	statusOK:    {text.FgGreen},
	statusWarn:  {text.FgYellow},
	statusError: {text.FgRed, text.Bold},
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	line := fmt.Sprintf("  %-*s %-4s %s", statusLabelWidth, label+":", statusMarks[kind], message)
	line = strings.TrimRight(line, " ")
	if colors, ok := statusColors[kind]; ok && colorize {
		return colors.Sprint(line)
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	title = strings.ToUpper(strings.TrimSpace(title))
	if colorize {
		title = text.Bold.Sprint(title)
	}
	return []string{title}
}
