package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// terminalBrowser stands in for the address bar: navigation is printed.
type terminalBrowser struct {
	mu       sync.Mutex
	location string
	out      io.Writer
}

func (b *terminalBrowser) Location() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.location
}

func (b *terminalBrowser) Replace(target string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.location = target
	fmt.Fprintf(b.out, "navigate: %s\n", target)
}

// terminalAlerter prints the notice and waits for Enter.
type terminalAlerter struct {
	in  io.Reader
	out io.Writer
}

func (a *terminalAlerter) Alert(message string) {
	line := strings.Repeat("=", 60)
	fmt.Fprintf(a.out, "\n%s\n%s\n%s\nPress Enter to continue.\n", line, message, line)
	_, _ = bufio.NewReader(a.in).ReadString('\n')
}
