package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var out io.Writer = os.Stdout
var errOut io.Writer = os.Stderr

var (
	infoColor    = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
)

func printTagged(w io.Writer, c *color.Color, tag string, format string, args ...interface{}) {
	fmt.Fprintln(w, c.Sprint(tag), fmt.Sprintf(format, args...))
}

func printStatus(format string, args ...interface{}) {
	printTagged(out, infoColor, "[INFO]", format, args...)
}

func printSuccess(format string, args ...interface{}) {
	printTagged(out, successColor, "[SUCCESS]", format, args...)
}

func printWarning(format string, args ...interface{}) {
	printTagged(out, warningColor, "[WARNING]", format, args...)
}

func printError(format string, args ...interface{}) {
	printTagged(errOut, errorColor, "[ERROR]", format, args...)
}
