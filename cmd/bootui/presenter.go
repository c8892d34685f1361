package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/phrazzld/bootui/internal/controller"
	"github.com/phrazzld/bootui/internal/task"
)

// consolePresenter renders controller output as lines of text.
type consolePresenter struct {
	mu     sync.Mutex
	out    io.Writer
	last   *controller.DisplayState
	shown  map[string]bool
	faults []task.Fault
}

var _ controller.Presenter = (*consolePresenter)(nil)

func newConsolePresenter(out io.Writer) *consolePresenter {
	return &consolePresenter{out: out, shown: make(map[string]bool)}
}

func (p *consolePresenter) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// Render only stores the state; commands print it once they settle.
func (p *consolePresenter) Render(state controller.DisplayState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = &state
}

func (p *consolePresenter) ShowProgress(tag string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shown[tag] {
		return
	}
	p.shown[tag] = true
	p.printf(controller.SummaryPleaseWait)
}

func (p *consolePresenter) DismissProgress(tag string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.shown, tag)
}

func (p *consolePresenter) ShowConfirmation(tag, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shown[tag] {
		return
	}
	p.shown[tag] = true
	p.printf("%s", message)
}

func (p *consolePresenter) Notify(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printf("%s", message)
}

func (p *consolePresenter) ShowConnectionError(fault task.Fault) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.faults = append(p.faults, fault)
	p.printf("error: could not reach the boot UI helper (%s)", fault)
}

func (p *consolePresenter) RecreateHost() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printf("theme changed")
}

// fault returns the first connection fault shown, if any.
func (p *consolePresenter) fault() (task.Fault, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.faults) == 0 {
		return task.Fault{}, false
	}
	return p.faults[0], true
}

// printState writes the last rendered state.
func (p *consolePresenter) printState() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return
	}
	printAction(p.out, p.last.Install)
	printAction(p.out, p.last.Uninstall)
}

func printAction(out io.Writer, a controller.ActionState) {
	status := "disabled"
	if a.Enabled {
		status = "available"
	}
	if a.Summary == "" {
		_, _ = fmt.Fprintf(out, "%-9s %s\n", a.Title+":", status)
		return
	}
	_, _ = fmt.Fprintf(out, "%-9s %s (%s)\n", a.Title+":", status, a.Summary)
}
