package controller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/bootui/internal/helper"
	"github.com/phrazzld/bootui/internal/probe"
	"github.com/phrazzld/bootui/internal/settings"
	"github.com/phrazzld/bootui/internal/task"
	"github.com/phrazzld/bootui/internal/version"
	"github.com/phrazzld/bootui/internal/worker"
	"github.com/stretchr/testify/require"
)

const testBuild = "9.3.0"

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

var errStubStopped = errors.New("stub client stopped")

type reply struct {
	version *version.Version
	ok      bool
	err     error
}

// stubClient is a helper.Client whose calls block until the test replies.
type stubClient struct {
	versions   chan reply
	installs   chan reply
	uninstalls chan reply
	stop       chan struct{}

	versionCalls atomic.Int32
	installCalls atomic.Int32
}

func newStubClient() *stubClient {
	return &stubClient{
		versions:   make(chan reply, 8),
		installs:   make(chan reply, 8),
		uninstalls: make(chan reply, 8),
		stop:       make(chan struct{}),
	}
}

func (s *stubClient) wait(ch chan reply) reply {
	select {
	case r := <-ch:
		return r
	case <-s.stop:
		return reply{err: errStubStopped}
	}
}

func (s *stubClient) GetVersion(ctx context.Context) (*version.Version, error) {
	s.versionCalls.Add(1)
	r := s.wait(s.versions)
	return r.version, r.err
}

func (s *stubClient) Install(ctx context.Context, build *version.Version) (bool, error) {
	s.installCalls.Add(1)
	r := s.wait(s.installs)
	return r.ok, r.err
}

func (s *stubClient) Uninstall(ctx context.Context) (bool, error) {
	r := s.wait(s.uninstalls)
	return r.ok, r.err
}

var _ helper.Client = (*stubClient)(nil)

// recordingPresenter records everything the controller shows.
type recordingPresenter struct {
	mu            sync.Mutex
	renders       []DisplayState
	progress      map[string]bool
	progressShown int
	confirmations []string
	notes         []string
	faults        []task.Fault
	recreated     int
}

func newRecordingPresenter() *recordingPresenter {
	return &recordingPresenter{progress: make(map[string]bool)}
}

func (p *recordingPresenter) Render(state DisplayState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renders = append(p.renders, state)
}

func (p *recordingPresenter) ShowProgress(tag string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.progress[tag] {
		p.progressShown++
	}
	p.progress[tag] = true
}

func (p *recordingPresenter) DismissProgress(tag string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.progress, tag)
}

func (p *recordingPresenter) ShowConfirmation(tag, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmations = append(p.confirmations, tag+": "+message)
}

func (p *recordingPresenter) Notify(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = append(p.notes, message)
}

func (p *recordingPresenter) ShowConnectionError(fault task.Fault) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.faults = append(p.faults, fault)
}

func (p *recordingPresenter) RecreateHost() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recreated++
}

func (p *recordingPresenter) last() DisplayState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.renders) == 0 {
		return DisplayState{}
	}
	return p.renders[len(p.renders)-1]
}

// countRenders returns how many renders satisfy match.
func (p *recordingPresenter) countRenders(match func(DisplayState) bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, r := range p.renders {
		if match(r) {
			n++
		}
	}
	return n
}

func (p *recordingPresenter) progressVisible(tag string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress[tag]
}

func (p *recordingPresenter) faultCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.faults)
}

func (p *recordingPresenter) notifications() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.notes...)
}

func (p *recordingPresenter) confirmationList() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.confirmations...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	t         *testing.T
	client    *stubClient
	worker    *worker.Worker
	store     *settings.MemoryStore
	supported bool
}

func newHarness(t *testing.T, supported bool) *harness {
	t.Helper()

	client := newStubClient()
	w := worker.New(worker.Config{
		Count:     2,
		QueueSize: 8,
		Build:     version.MustParse(testBuild),
	}, client, testLogger())
	w.Run()
	t.Cleanup(w.Stop)
	t.Cleanup(func() { close(client.stop) })

	return &harness{
		t:         t,
		client:    client,
		worker:    w,
		store:     settings.NewMemoryStore(),
		supported: supported,
	}
}

func (h *harness) newController(p Presenter) *Controller {
	c := New(Options{
		Build:     testBuild,
		Presenter: p,
		Probe:     probe.Static(h.supported),
		Settings:  h.store,
		Logger:    testLogger(),
	})
	h.t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c
}

// attached returns a controller attached to the harness worker.
func (h *harness) attached(p Presenter) *Controller {
	h.t.Helper()
	c := h.newController(p)
	require.NoError(h.t, c.Attach(context.Background(), h.worker))
	return c
}

func (h *harness) waitVersionCalls(n int32) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.client.versionCalls.Load() == n },
		waitFor, tick, "expected %d version queries", n)
}

func (h *harness) waitRegistryEmpty() {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.worker.Registry().Len() == 0 },
		waitFor, tick, "registry still holds tasks")
}

func (h *harness) waitCompleted(id task.ID) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		info, err := h.worker.Registry().Get(id)
		return err == nil && info.Status == task.StatusCompleted
	}, waitFor, tick, "task %d never completed", id)
}

func slotsOf(t *testing.T, c *Controller) Slots {
	t.Helper()
	s, err := c.Slots(context.Background())
	require.NoError(t, err)
	return s
}

func stateOf(t *testing.T, c *Controller) DisplayState {
	t.Helper()
	st, err := c.State(context.Background())
	require.NoError(t, err)
	return st
}

func installEnabled(s DisplayState) bool { return s.Install.Enabled }
