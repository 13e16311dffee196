package grid

import (
	"context"
	"sync"
)

// Notice is an advisory message that never interrupts resolution.
type Notice struct {
	Code    string
	Message string
	Meta    map[string]any
}

const NoticePreviousProfileUnavailable = "previous_profile_unavailable"

// Notifier receives advisory notices for the acting session.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(ctx context.Context, notice Notice)

// Notify dispatches to the underlying function.
func (fn NotifierFunc) Notify(ctx context.Context, notice Notice) {
	if fn != nil {
		fn(ctx, notice)
	}
}

// NoticeCollector records notices, mostly for tests and the CLI.
type NoticeCollector struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify records notice.
func (c *NoticeCollector) Notify(_ context.Context, notice Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, notice)
}

// Notices returns a copy of the recorded notices.
func (c *NoticeCollector) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice(nil), c.notices...)
}
