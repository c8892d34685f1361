package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/bootui/internal/probe"
	"github.com/phrazzld/bootui/internal/settings"
	"github.com/phrazzld/bootui/internal/task"
	"github.com/phrazzld/bootui/internal/version"
)

// Options configures a Controller.
type Options struct {
	// Build is the boot UI version this build ships. It must parse; an
	// invalid value panics when the first version result arrives.
	Build     string
	Presenter Presenter
	Probe     probe.Probe
	Settings  settings.Store
	Logger    *slog.Logger
}

// Controller drives the boot UI preference entries.
type Controller struct {
	home      *task.Mailbox
	build     string
	presenter Presenter
	probe     probe.Probe
	settings  settings.Store
	logger    *slog.Logger

	// Everything below is owned by the home goroutine.
	slots          Slots
	pendingRelease []task.ID
	session        *Session
	state          DisplayState
	probed         bool
	supported      bool
	faultNotified  bool
	destroyed      bool
}

// New creates a controller and starts its home goroutine. The initial
// display state has both actions disabled until a version is known.
func New(opts Options) *Controller {
	logger := opts.Logger.With("component", "controller")

	threads := opts.Settings.GetInt(settings.KeyParallelPatching, settings.DefaultPatchingThreads)

	c := &Controller{
		home:      task.NewMailbox("controller", logger),
		build:     opts.Build,
		presenter: opts.Presenter,
		probe:     opts.Probe,
		settings:  opts.Settings,
		logger:    logger,
		slots:     EmptySlots(),
		state: DisplayState{
			Install:         ActionState{Title: TitleInstall, Summary: SummaryPleaseWait},
			Uninstall:       ActionState{Title: TitleUninstall, Summary: SummaryPleaseWait},
			ParallelThreads: threads,
			ParallelSummary: fmt.Sprintf(SummaryParallelThreads, threads),
			DarkTheme:       opts.Settings.GetBool(settings.KeyUseDarkTheme, false),
		},
	}
	c.home.Start()
	c.home.Post(c.render)
	return c
}

// Home is the executor every controller callback runs on.
func (c *Controller) Home() task.Executor {
	return c.home
}

// do runs fn on the home goroutine and waits for it.
func (c *Controller) do(ctx context.Context, fn func() error) error {
	var err error
	if callErr := c.home.Call(ctx, func() {
		if c.destroyed {
			err = ErrDestroyed
			return
		}
		err = fn()
	}); callErr != nil {
		if errors.Is(callErr, task.ErrMailboxClosed) {
			return ErrDestroyed
		}
		return callErr
	}
	return err
}

// Attach connects the controller to worker. Deferred releases are sent,
// outstanding slots are re-registered and, if no version query is
// outstanding, a new one is issued. Attaching while attached replaces the
// previous connection.
func (c *Controller) Attach(ctx context.Context, worker Connectable) error {
	return c.do(ctx, func() error {
		if c.session != nil {
			c.session.teardown(&c.slots)
		}
		s := newSession(c, worker)
		s.establish(&c.slots, &c.pendingRelease)
		c.session = s
		c.logger.Debug("attached to worker", "session_id", s.ID().String())

		if c.slots.Install.Valid() || c.slots.Uninstall.Valid() {
			c.presenter.ShowProgress(ProgressDialogTag)
		}
		c.ensureVersionQuery()
		return nil
	})
}

// Detach disconnects from the worker. Outstanding tasks keep running and
// their ids stay in the slots for the next Attach.
func (c *Controller) Detach(ctx context.Context) error {
	return c.do(ctx, func() error {
		c.detach()
		return nil
	})
}

func (c *Controller) detach() {
	if c.session == nil {
		return
	}
	c.session.teardown(&c.slots)
	c.logger.Debug("detached from worker", "session_id", c.session.ID().String())
	c.session = nil
}

// Shutdown detaches and stops the home goroutine without releasing any
// task, for a host that will recreate the controller from Save.
func (c *Controller) Shutdown(ctx context.Context) error {
	err := c.do(ctx, func() error {
		c.detach()
		c.destroyed = true
		return nil
	})
	c.stopHome()
	return err
}

// Destroy ends the controller for good. Every outstanding task is released
// when attached, or recorded for release by a successor otherwise; see Save.
func (c *Controller) Destroy(ctx context.Context) error {
	err := c.do(ctx, func() error {
		// The version query goes first.
		c.releaseSlot(&c.slots.QueryVersion)
		c.releaseSlot(&c.slots.Install)
		c.releaseSlot(&c.slots.Uninstall)
		c.detach()
		c.destroyed = true
		return nil
	})
	c.stopHome()
	return err
}

func (c *Controller) stopHome() {
	c.home.Purge()
	c.home.Close()
}

// Save returns the state a recreated controller needs. It may be called
// after Shutdown or Destroy.
func (c *Controller) Save(ctx context.Context) (Bundle, error) {
	var b Bundle
	snapshot := func() {
		b.Slots = c.slots
		b.PendingRelease = append([]task.ID(nil), c.pendingRelease...)
	}
	err := c.home.Call(ctx, snapshot)
	if errors.Is(err, task.ErrMailboxClosed) {
		// The home goroutine has exited, nothing else touches the state.
		<-c.home.Done()
		snapshot()
		return b, nil
	}
	return b, err
}

// Restore loads a saved bundle. It must be called before Attach.
func (c *Controller) Restore(ctx context.Context, b Bundle) error {
	return c.do(ctx, func() error {
		if c.session != nil {
			return ErrAlreadyAttached
		}
		c.slots = b.Slots
		c.pendingRelease = append(c.pendingRelease, b.PendingRelease...)
		return nil
	})
}

// State returns the current display state.
func (c *Controller) State(ctx context.Context) (DisplayState, error) {
	var st DisplayState
	err := c.do(ctx, func() error {
		st = c.state
		return nil
	})
	return st, err
}

// Slots returns the outstanding task ids.
func (c *Controller) Slots(ctx context.Context) (Slots, error) {
	var s Slots
	err := c.do(ctx, func() error {
		s = c.slots
		return nil
	})
	return s, err
}

// ClickInstall starts an install if none is outstanding.
func (c *Controller) ClickInstall(ctx context.Context) error {
	return c.click(ctx, task.KindInstall, &c.slots.Install)
}

// ClickUninstall starts an uninstall if none is outstanding.
func (c *Controller) ClickUninstall(ctx context.Context) error {
	return c.click(ctx, task.KindUninstall, &c.slots.Uninstall)
}

func (c *Controller) click(ctx context.Context, kind task.Kind, slot *task.ID) error {
	return c.do(ctx, func() error {
		if c.session == nil {
			return ErrNotConnected
		}
		if slot.Valid() {
			return ErrActionInProgress
		}
		c.faultNotified = false
		if !c.issue(kind, slot) {
			return fmt.Errorf("issue %s: %w", kind, ErrNotConnected)
		}
		c.presenter.ShowProgress(ProgressDialogTag)
		return nil
	})
}

// issue prepares a task, registers the session on it and starts it. The
// listener is attached before the task can run.
func (c *Controller) issue(kind task.Kind, slot *task.ID) bool {
	w := c.session.worker
	id := w.Prepare(kind)
	if err := w.AddListener(id, c.session); err != nil {
		c.logger.Error("failed to register on new task", "task_id", id, "task_kind", kind, "error", err)
		if rerr := w.Release(id); rerr != nil {
			c.logger.Warn("failed to release task", "task_id", id, "error", rerr)
		}
		return false
	}
	*slot = id

	// A start failure still completes the task with a fault, which arrives
	// through the listener like any other result.
	if err := w.Start(id); err != nil {
		c.logger.Warn("task could not be scheduled", "task_id", id, "task_kind", kind, "error", err)
	}
	c.logger.Debug("task issued", "task_id", id, "task_kind", kind)
	return true
}

// releaseSlot clears slot and releases its task now, or later if detached.
func (c *Controller) releaseSlot(slot *task.ID) {
	id := *slot
	if !id.Valid() {
		return
	}
	*slot = task.InvalidID

	if c.session == nil {
		c.pendingRelease = append(c.pendingRelease, id)
		return
	}
	if err := c.session.worker.Release(id); err != nil && !errors.Is(err, task.ErrUnknownTask) {
		c.logger.Warn("failed to release task", "task_id", id, "error", err)
	}
}

// ensureVersionQuery issues a version query when attached, none is
// outstanding and the device supports boot UI. The probe runs once.
func (c *Controller) ensureVersionQuery() {
	if c.session == nil || c.slots.QueryVersion.Valid() {
		return
	}

	if !c.probed {
		c.supported = c.probe.SupportsBootUI(context.Background())
		c.probed = true
	}
	if !c.supported {
		c.state.Install = ActionState{Title: c.state.Install.Title, Summary: SummaryNotSupported}
		c.state.Uninstall = ActionState{Title: TitleUninstall, Summary: SummaryNotSupported}
		c.render()
		return
	}

	c.issue(task.KindQueryVersion, &c.slots.QueryVersion)
}

func (c *Controller) render() {
	c.presenter.Render(c.state)
}

// versionState derives both action entries from the installed version.
// It panics if build is not a valid version.
func versionState(installed *version.Version, build string) (install, uninstall ActionState) {
	if installed == nil {
		return ActionState{Enabled: true, Title: TitleInstall},
			ActionState{Enabled: false, Title: TitleUninstall, Summary: SummaryNotInstalled}
	}

	newest := version.MustParse(build)
	install = ActionState{Title: TitleUpdate}
	if installed.Less(newest) {
		install.Enabled = true
		install.Summary = fmt.Sprintf(SummaryUpdateAvailable, newest.String())
	} else {
		install.Summary = SummaryUpToDate
	}
	return install, ActionState{Enabled: true, Title: TitleUninstall}
}
