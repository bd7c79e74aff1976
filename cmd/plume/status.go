package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

const statusLabelWidth = 20

func renderStatusLine(label string, passed bool, detail string, colorize bool) string {
	state := "FAIL"
	color := ansiRed
	if passed {
		state = "OK"
		color = ansiGreen
	}
	line := fmt.Sprintf("  %-*s [%s] %s", statusLabelWidth, label+":", state, detail)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
