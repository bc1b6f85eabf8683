package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh/terminal"
)

// Reporter receives one call per raster the pipeline finishes.
type Reporter interface {
	Clipped(output string)
	Failed(input string, err error)
}

// ConsoleReporter writes a line per raster, marked and coloured when
// the destination is a terminal.
type ConsoleReporter struct {
	w     io.Writer
	color bool
}

func NewConsoleReporter(f *os.File) *ConsoleReporter {
	return &ConsoleReporter{w: f, color: terminal.IsTerminal(int(f.Fd()))}
}

func (r *ConsoleReporter) Clipped(output string) {
	name := filepath.Base(output)
	if r.color {
		fmt.Fprintf(r.w, "✅ Clipped: %s\n", inGreen(name))
		return
	}
	fmt.Fprintf(r.w, "Clipped: %s\n", name)
}

func (r *ConsoleReporter) Failed(input string, err error) {
	name := filepath.Base(input)
	if r.color {
		fmt.Fprintf(r.w, "❌ Failed: %s: %v\n", inRed(name), err)
		return
	}
	fmt.Fprintf(r.w, "Failed: %s: %v\n", name, err)
}

func inRed(str string) string {
	return fmt.Sprintf("\x1b[31;1m%s\x1b[0m", str)
}

func inGreen(str string) string {
	return fmt.Sprintf("\x1b[32;1m%s\x1b[0m", str)
}
