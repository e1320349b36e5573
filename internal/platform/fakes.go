package platform

import (
	"context"
	"sync"
)

// FakeWakeLock is an instrumented WakeLock for tests.
type FakeWakeLock struct {
	mu       sync.Mutex
	Err      error // returned from Acquire when set
	Acquired int
	Released int
	Reasons  []string
}

// Acquire records the request and hands back a counting release.
func (f *FakeWakeLock) Acquire(_ context.Context, reason string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	f.Acquired++
	f.Reasons = append(f.Reasons, reason)

	var once sync.Once

	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()

			f.Released++
		})
	}, nil
}

// Held reports acquisitions minus releases.
func (f *FakeWakeLock) Held() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.Acquired - f.Released
}

// FakeNotifier is an instrumented Notifier for tests.
type FakeNotifier struct {
	mu     sync.Mutex
	Err    error // returned from Show when set
	Shown  int
	Closed int
	Titles []string
	Bodies []string
}

// Show records the notification and hands back a counting close.
func (f *FakeNotifier) Show(_ context.Context, title, body string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	f.Shown++
	f.Titles = append(f.Titles, title)
	f.Bodies = append(f.Bodies, body)

	var once sync.Once

	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()

			f.Closed++
		})
	}, nil
}

// Visible reports notifications shown minus closed.
func (f *FakeNotifier) Visible() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.Shown - f.Closed
}

// FakeProbe is a scripted ProcessProbe for tests.
type FakeProbe struct {
	IsRunning bool
	Err       error
	Queries   []string
}

// Running returns the scripted answer.
func (f *FakeProbe) Running(executable string) (bool, error) {
	f.Queries = append(f.Queries, executable)

	return f.IsRunning, f.Err
}
