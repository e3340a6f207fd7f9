package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type sourceTraceKey struct{}

// SourceTrace collects the names of the providers that actually answered the
// calls made under one context.
type SourceTrace struct {
	mu    sync.Mutex
	names map[string]struct{}
}

// WithSourceTrace returns a context whose provider calls are recorded on the
// returned trace.
func WithSourceTrace(ctx context.Context) (context.Context, *SourceTrace) {
	t := &SourceTrace{names: make(map[string]struct{})}
	return context.WithValue(ctx, sourceTraceKey{}, t), t
}

// RecordSource notes that name served a call under ctx. No-op without a trace.
func RecordSource(ctx context.Context, name string) {
	t, ok := ctx.Value(sourceTraceKey{}).(*SourceTrace)
	if !ok || name == "" {
		return
	}
	t.mu.Lock()
	t.names[name] = struct{}{}
	t.mu.Unlock()
}

// String joins the recorded names, sorted, with "+". Empty when nothing was
// recorded.
func (t *SourceTrace) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.names))
	for n := range t.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return strings.Join(out, "+")
}
