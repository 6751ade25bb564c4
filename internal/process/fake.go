package process

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// Reply is the scripted result of one command line in a Fake.
type Reply struct {
	Output string
	Err    error
	// Delay simulates a slow command; the context deadline still wins.
	Delay time.Duration
}

// Fake is a scripted Runner for tests. Unscripted commands fail as if the
// executable were missing.
type Fake struct {
	mu       sync.Mutex
	replies  map[string]Reply
	calls    []string
	started  []string
	startErr map[string]error
}

// NewFake creates an empty scripted runner.
func NewFake() *Fake {
	return &Fake{
		replies:  make(map[string]Reply),
		startErr: make(map[string]error),
	}
}

// On scripts the reply for an exact command line.
func (f *Fake) On(commandLine string, reply Reply) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[commandLine] = reply
	return f
}

// FailStart makes Start fail for the given executable.
func (f *Fake) FailStart(name string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startErr[name] = err
	return f
}

// Calls returns every command line passed to CombinedOutput, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Started returns every command line passed to Start, in order.
func (f *Fake) Started() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.started...)
}

// CombinedOutput implements Runner.
func (f *Fake) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	commandLine := CommandLine(name, args...)

	f.mu.Lock()
	f.calls = append(f.calls, commandLine)
	reply, ok := f.replies[commandLine]
	f.mu.Unlock()

	if !ok {
		return nil, &exec.Error{Name: name, Err: exec.ErrNotFound}
	}

	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return []byte(reply.Output), reply.Err
}

// Start implements Runner.
func (f *Fake) Start(name string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.startErr[name]; ok {
		return fmt.Errorf("start %s: %w", name, err)
	}
	f.started = append(f.started, CommandLine(name, args...))
	return nil
}
