package dashboard

import "sync"

const defaultConsoleLines = 500

// ConsoleBuffer keeps the last N console lines.
type ConsoleBuffer struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func NewConsoleBuffer(max int) *ConsoleBuffer {
	if max <= 0 {
		max = defaultConsoleLines
	}
	return &ConsoleBuffer{max: max}
}

func (c *ConsoleBuffer) Append(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
	if over := len(c.lines) - c.max; over > 0 {
		c.lines = append([]string(nil), c.lines[over:]...)
	}
}

func (c *ConsoleBuffer) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *ConsoleBuffer) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}
