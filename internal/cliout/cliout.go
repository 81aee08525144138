// Package cliout prints the color-coded single-line CLI messages
// described in spec §7, grounded on
// original_source/src/utils/logging.rs's error!/warn!/info!/notice!/
// success!/debug! macros — here expressed as plain functions over
// fatih/color rather than macros, since Go has no macro system.
package cliout

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var verbose = false

// SetVerbose controls whether Debug messages are printed, mirroring
// the --verbose global flag from spec §6.
func SetVerbose(v bool) {
	verbose = v
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	noticeColor  = color.New(color.FgMagenta)
	successColor = color.New(color.FgGreen, color.Bold)
	debugColor   = color.New(color.FgWhite, color.Faint)
)

// Error prints a red, bold error line to stderr.
func Error(format string, args ...any) {
	fmt.Fprintln(os.Stderr, errorColor.Sprintf(format, args...))
}

// Warn prints a yellow warning line to stderr.
func Warn(format string, args ...any) {
	fmt.Fprintln(os.Stderr, warnColor.Sprintf(format, args...))
}

// Info prints a cyan informational line to stdout.
func Info(format string, args ...any) {
	fmt.Println(infoColor.Sprintf(format, args...))
}

// InfoInline prints a cyan informational fragment with no trailing
// newline, for building up a line across multiple calls.
func InfoInline(format string, args ...any) {
	fmt.Print(infoColor.Sprintf(format, args...))
}

// Notice prints a magenta notice line to stdout, for lower-priority
// status updates.
func Notice(format string, args ...any) {
	fmt.Println(noticeColor.Sprintf(format, args...))
}

// Success prints a green, bold success line to stdout.
func Success(format string, args ...any) {
	fmt.Println(successColor.Sprintf(format, args...))
}

// Debug prints a dim debug line to stderr, suppressed unless
// SetVerbose(true) was called.
func Debug(format string, args ...any) {
	if !verbose {
		return
	}
	fmt.Fprintln(os.Stderr, debugColor.Sprintf(format, args...))
}
