package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"streamer/internal/pipeline"
	"streamer/internal/preflight"
	"streamer/internal/stage"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
	timestampLayout  = "2006-01-02 15:04:05"
)

var titleCaser = cases.Title(language.Und)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

// stageStatusKind maps a stage state onto a display severity.
func stageStatusKind(status stage.Status) statusKind {
	switch status {
	case stage.Execute:
		return statusOK
	case stage.Stop:
		return statusWarn
	case stage.Error:
		return statusError
	default:
		return statusInfo
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// displayName renders identifiers such as stage names for humans.
func displayName(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

func preflightLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}

func stageStatusLines(stages []pipeline.StageStatus, colorize bool) []string {
	lines := make([]string, 0, len(stages))
	for _, st := range stages {
		message := displayName(st.Status.String())
		if st.Head != nil {
			message = fmt.Sprintf("%s (%s: %s)", message, st.Head.Type, st.Head.Message)
		} else if st.Detail != "" {
			message = fmt.Sprintf("%s (%s)", message, st.Detail)
		}
		lines = append(lines, renderStatusLine(displayName(st.Name), stageStatusKind(st.Status), message, colorize))
	}
	return lines
}

func stageTableRows(stages []pipeline.StageStatus) [][]string {
	rows := make([][]string, 0, len(stages))
	for _, st := range stages {
		rows = append(rows, []string{
			displayName(st.Name),
			displayName(st.Status.String()),
			strconv.Itoa(st.Inputs),
			strconv.Itoa(st.Outputs),
			strconv.Itoa(st.Stops),
			strconv.Itoa(st.Exceptions),
		})
	}
	return rows
}

var stageTableColumns = []tableColumn{
	{Header: "Stage"},
	{Header: "Status"},
	{Header: "Inputs", Align: alignRight},
	{Header: "Outputs", Align: alignRight},
	{Header: "Stops", Align: alignRight},
	{Header: "Exceptions", Align: alignRight},
}

var exceptionTableColumns = []tableColumn{
	{Header: "Stage"},
	{Header: "Seq", Align: alignRight},
	{Header: "Type"},
	{Header: "Kind"},
	{Header: "Message", MaxWidth: 48},
	{Header: "Item", MaxWidth: 32},
	{Header: "At"},
	{Header: "Acknowledged"},
}

func exceptionTableRows(views []pipeline.ExceptionView) [][]string {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		acked := "-"
		if v.AcknowledgedAt != nil {
			acked = formatTimestamp(*v.AcknowledgedAt)
		}
		kind := v.FailureKind
		if kind == "" {
			kind = v.Category
		}
		rows = append(rows, []string{
			displayName(v.Stage),
			strconv.FormatUint(v.Seq, 10),
			v.Type,
			kind,
			v.Message,
			v.Item,
			formatTimestamp(v.At),
			acked,
		})
	}
	return rows
}

var artifactTableColumns = []tableColumn{
	{Header: "Stage"},
	{Header: "Kind"},
	{Header: "Name", MaxWidth: 40},
	{Header: "Duration", Align: alignRight},
	{Header: "Frames", Align: alignRight},
	{Header: "Created"},
}

func artifactTableRows(arts []pipeline.Artifact) [][]string {
	rows := make([][]string, 0, len(arts))
	for _, a := range arts {
		frames := "-"
		if a.Frames > 0 {
			frames = strconv.Itoa(a.Frames)
		}
		rows = append(rows, []string{
			displayName(a.Stage),
			a.Kind,
			a.Name,
			fmt.Sprintf("%.2fs", a.Duration),
			frames,
			formatTimestamp(a.CreatedAt),
		})
	}
	return rows
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timestampLayout)
}
