package pipeline

import (
	"fmt"
	"sync"
	"time"
)

// itemLog buffers timestamped progress lines for one item. The buffer is
// attached to the catalog item at finalization.
type itemLog struct {
	mu    sync.Mutex
	now   func() time.Time
	lines []string
}

func newItemLog() *itemLog {
	return &itemLog{now: time.Now}
}

func (l *itemLog) Append(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf("%s %s", l.now().Format("15:04:05"), message))
}

func (l *itemLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.lines) == 0 {
		return nil
	}
	return append([]string(nil), l.lines...)
}
