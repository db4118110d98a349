// Package cli implements the songbird terminal front end: a UIPort
// backed by stdin/stdout, and the REPL loop that drives one
// Orchestrator across a session.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/Spandan7724/songbird/internal/agent"
)

// interruptWindow is the §4.5 double-tap window: a second SIGINT
// within this long after the first terminates the process instead of
// just canceling the in-flight turn.
const interruptWindow = 2 * time.Second

// TerminalUIPort implements agent.UIPort against the process's stdin
// and stdout. When stdout is not a terminal it answers every Ask with
// its default index without reading input (like agent.NoopUIPort), so
// piping songbird's output never wedges on a prompt nobody can answer.
type TerminalUIPort struct {
	in  *bufio.Reader
	out *os.File

	mu            sync.Mutex
	onInterrupt   func()
	lastInterrupt time.Time
}

// NewTerminalUIPort builds a UIPort over the given streams.
func NewTerminalUIPort(in *os.File, out *os.File) *TerminalUIPort {
	return &TerminalUIPort{in: bufio.NewReader(in), out: out}
}

func (u *TerminalUIPort) interactive() bool {
	return term.IsTerminal(int(u.out.Fd()))
}

func (u *TerminalUIPort) ShowDiff(path, unifiedDiff string) {
	fmt.Fprintf(u.out, "\n--- proposed change: %s ---\n%s\n", path, unifiedDiff)
}

func (u *TerminalUIPort) Ask(ctx context.Context, title string, options []string, defaultIndex int) (int, bool) {
	if !u.interactive() {
		return defaultIndex, false
	}
	fmt.Fprintf(u.out, "%s ", title)
	for i, opt := range options {
		marker := " "
		if i == defaultIndex {
			marker = "*"
		}
		fmt.Fprintf(u.out, "[%d%s %s] ", i+1, marker, opt)
	}
	fmt.Fprint(u.out, "> ")

	lineCh := make(chan string, 1)
	go func() {
		line, _ := u.in.ReadString('\n')
		lineCh <- strings.TrimSpace(line)
	}()

	select {
	case <-ctx.Done():
		return defaultIndex, true
	case line := <-lineCh:
		if line == "" {
			return defaultIndex, false
		}
		for i, opt := range options {
			if strings.EqualFold(line, opt) || line == fmt.Sprint(i+1) {
				return i, false
			}
		}
		return defaultIndex, false
	}
}

type terminalStatusHandle struct {
	out *os.File
}

func (h terminalStatusHandle) Stop() { fmt.Fprintln(h.out) }

func (u *TerminalUIPort) ShowStatus(label string) agent.StatusHandle {
	fmt.Fprintf(u.out, "%s...", label)
	return terminalStatusHandle{out: u.out}
}

// OnInterrupt registers the callback invoked on the first SIGINT of a
// double tap (§4.5); see WatchInterrupts for where it's actually
// triggered. Registering a new callback replaces the previous one.
func (u *TerminalUIPort) OnInterrupt(callback func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.onInterrupt = callback
}

// WatchInterrupts installs a SIGINT handler implementing §4.5's
// double-tap contract: a first Ctrl-C, or one more than interruptWindow
// after the previous one, invokes the OnInterrupt callback (canceling
// whatever turn is in flight) and prints a transient notice; a Ctrl-C
// within interruptWindow of the previous one instead calls terminate. The watch stops when ctx
// is done.
func (u *TerminalUIPort) WatchInterrupts(ctx context.Context, terminate func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		defer signal.Stop(sigCh)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigCh:
				u.mu.Lock()
				now := time.Now()
				doubleTap := !u.lastInterrupt.IsZero() && now.Sub(u.lastInterrupt) <= interruptWindow
				u.lastInterrupt = now
				callback := u.onInterrupt
				u.mu.Unlock()

				if doubleTap {
					terminate()
					return
				}
				fmt.Fprint(u.out, "\nsongbird: interrupted — press Ctrl-C again within 2s to exit\n")
				if callback != nil {
					callback()
				}
			}
		}
	}()
}
