package controller

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/bootui/internal/helper"
	"github.com/phrazzld/bootui/internal/settings"
	"github.com/phrazzld/bootui/internal/task"
	"github.com/phrazzld/bootui/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InitialState(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	p := newRecordingPresenter()
	c := h.newController(p)

	st := stateOf(t, c)
	assert.Equal(t, ActionState{Title: TitleInstall, Summary: SummaryPleaseWait}, st.Install)
	assert.Equal(t, ActionState{Title: TitleUninstall, Summary: SummaryPleaseWait}, st.Uninstall)
	assert.Equal(t, settings.DefaultPatchingThreads, st.ParallelThreads)
	assert.Equal(t, "Patch using 2 threads", st.ParallelSummary)
	assert.Equal(t, EmptySlots(), slotsOf(t, c))

	require.Eventually(t, func() bool { return p.countRenders(func(DisplayState) bool { return true }) == 1 },
		waitFor, tick)
}

func TestVersionQuery_DisplayState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		installed *version.Version
		install   ActionState
		uninstall ActionState
	}{
		{
			name:      "not installed",
			installed: nil,
			install:   ActionState{Enabled: true, Title: TitleInstall},
			uninstall: ActionState{Enabled: false, Title: TitleUninstall, Summary: SummaryNotInstalled},
		},
		{
			name:      "older than build",
			installed: version.MustParse("9.2.0"),
			install:   ActionState{Enabled: true, Title: TitleUpdate, Summary: "Update available to 9.3.0"},
			uninstall: ActionState{Enabled: true, Title: TitleUninstall},
		},
		{
			name:      "same as build",
			installed: version.MustParse("9.3.0"),
			install:   ActionState{Enabled: false, Title: TitleUpdate, Summary: SummaryUpToDate},
			uninstall: ActionState{Enabled: true, Title: TitleUninstall},
		},
		{
			name:      "newer than build",
			installed: version.MustParse("10.0.0-r12"),
			install:   ActionState{Enabled: false, Title: TitleUpdate, Summary: SummaryUpToDate},
			uninstall: ActionState{Enabled: true, Title: TitleUninstall},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, true)
			p := newRecordingPresenter()
			c := h.attached(p)

			h.waitVersionCalls(1)
			h.client.versions <- reply{version: tt.installed}

			require.Eventually(t, func() bool {
				return p.last().Uninstall.Title == TitleUninstall && p.last().Install.Summary != SummaryPleaseWait
			}, waitFor, tick)

			st := stateOf(t, c)
			assert.Equal(t, tt.install, st.Install)
			assert.Equal(t, tt.uninstall, st.Uninstall)

			// The consumed result is released.
			assert.Equal(t, EmptySlots(), slotsOf(t, c))
			h.waitRegistryEmpty()
		})
	}
}

func TestAttach_UnsupportedDeviceSkipsQuery(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false)
	p := newRecordingPresenter()
	c := h.attached(p)

	st := stateOf(t, c)
	assert.False(t, st.Install.Enabled)
	assert.False(t, st.Uninstall.Enabled)
	assert.Equal(t, SummaryNotSupported, st.Install.Summary)
	assert.Equal(t, SummaryNotSupported, st.Uninstall.Summary)

	assert.Equal(t, 0, h.worker.Registry().Len())
	assert.Equal(t, int32(0), h.client.versionCalls.Load())
}

func TestInstall_Success(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	p := newRecordingPresenter()
	c := h.attached(p)

	h.waitVersionCalls(1)
	h.client.versions <- reply{}
	require.Eventually(t, func() bool { return installEnabled(p.last()) }, waitFor, tick)

	require.NoError(t, c.ClickInstall(context.Background()))
	assert.True(t, p.progressVisible(ProgressDialogTag))
	assert.True(t, slotsOf(t, c).Install.Valid())

	h.client.installs <- reply{ok: true}

	require.Eventually(t, func() bool { return len(p.confirmationList()) == 1 }, waitFor, tick)
	assert.Equal(t, []string{ConfirmDialogTag + ": " + MessageUpdateRamdisk}, p.confirmationList())
	assert.Equal(t, []string{MessageInstallSuccess}, p.notifications())
	assert.False(t, p.progressVisible(ProgressDialogTag))

	// The version is queried again after the install.
	h.waitVersionCalls(2)
	h.client.versions <- reply{version: version.MustParse(testBuild)}
	require.Eventually(t, func() bool { return p.last().Install.Summary == SummaryUpToDate }, waitFor, tick)

	assert.Equal(t, EmptySlots(), slotsOf(t, c))
	h.waitRegistryEmpty()
}

func TestInstall_FailureNotifies(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	p := newRecordingPresenter()
	c := h.attached(p)

	h.waitVersionCalls(1)
	h.client.versions <- reply{}
	require.Eventually(t, func() bool { return installEnabled(p.last()) }, waitFor, tick)

	require.NoError(t, c.ClickInstall(context.Background()))
	h.client.installs <- reply{ok: false}

	require.Eventually(t, func() bool { return len(p.notifications()) == 1 }, waitFor, tick)
	assert.Equal(t, []string{MessageInstallFailure}, p.notifications())
	assert.Empty(t, p.confirmationList())
	h.waitVersionCalls(2)
}

func TestUninstall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		success bool
		message string
	}{
		{name: "success", success: true, message: MessageUninstallSuccess},
		{name: "failure", success: false, message: MessageUninstallFailure},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, true)
			p := newRecordingPresenter()
			c := h.attached(p)

			h.waitVersionCalls(1)
			h.client.versions <- reply{version: version.MustParse(testBuild)}
			require.Eventually(t, func() bool { return p.last().Uninstall.Enabled }, waitFor, tick)

			require.NoError(t, c.ClickUninstall(context.Background()))
			assert.True(t, p.progressVisible(ProgressDialogTag))
			h.client.uninstalls <- reply{ok: tt.success}

			require.Eventually(t, func() bool { return len(p.notifications()) == 1 }, waitFor, tick)
			assert.Equal(t, []string{tt.message}, p.notifications())
			assert.False(t, p.progressVisible(ProgressDialogTag))
			h.waitVersionCalls(2)
		})
	}
}

func TestInstall_ConnectionFaultRedirectsOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	p := newRecordingPresenter()
	c := h.attached(p)

	h.waitVersionCalls(1)
	h.client.versions <- reply{}
	require.Eventually(t, func() bool { return installEnabled(p.last()) }, waitFor, tick)

	require.NoError(t, c.ClickInstall(context.Background()))
	h.client.installs <- reply{err: &helper.ConnectionError{
		Reason: task.ReasonHelperUnreachable,
		Op:     "install",
		Err:    errors.New("connection refused"),
	}}

	require.Eventually(t, func() bool { return !slotsOf(t, c).Install.Valid() }, waitFor, tick)

	// Both the out-of-band fault and the faulted result arrived; the error
	// flow is entered once.
	assert.Equal(t, 1, p.faultCount())
	assert.Equal(t, task.ReasonHelperUnreachable, p.faults[0].Reason)
	assert.False(t, p.progressVisible(ProgressDialogTag))
	assert.Empty(t, p.notifications())

	// No re-query after a fault.
	assert.Equal(t, EmptySlots(), slotsOf(t, c))
	assert.Equal(t, int32(1), h.client.versionCalls.Load())
	h.waitRegistryEmpty()

	// A new attempt may report a fault again.
	require.NoError(t, c.ClickInstall(context.Background()))
	h.client.installs <- reply{err: &helper.ConnectionError{
		Reason: task.ReasonHelperUnauthorized,
		Op:     "install",
		Err:    errors.New("status 401"),
	}}
	require.Eventually(t, func() bool { return p.faultCount() == 2 }, waitFor, tick)
}

func TestVersionQuery_FaultShowsUnavailable(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	p := newRecordingPresenter()
	c := h.attached(p)

	h.waitVersionCalls(1)
	h.client.versions <- reply{err: &helper.ConnectionError{
		Reason: task.ReasonHelperVersionTooOld,
		Op:     "version",
		Err:    helper.ErrProtocolTooOld,
	}}

	require.Eventually(t, func() bool { return p.faultCount() == 1 }, waitFor, tick)
	require.Eventually(t, func() bool { return p.last().Install.Summary == SummaryUnavailable }, waitFor, tick)

	st := stateOf(t, c)
	assert.False(t, st.Install.Enabled)
	assert.False(t, st.Uninstall.Enabled)
	assert.Equal(t, 1, p.faultCount())
	h.waitRegistryEmpty()
}

func TestClick_Rules(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	p := newRecordingPresenter()
	c := h.newController(p)
	ctx := context.Background()

	assert.ErrorIs(t, c.ClickInstall(ctx), ErrNotConnected)
	assert.ErrorIs(t, c.ClickUninstall(ctx), ErrNotConnected)

	require.NoError(t, c.Attach(ctx, h.worker))
	h.waitVersionCalls(1)
	h.client.versions <- reply{}

	require.NoError(t, c.ClickInstall(ctx))
	assert.ErrorIs(t, c.ClickInstall(ctx), ErrActionInProgress)

	h.client.installs <- reply{ok: true}
	require.Eventually(t, func() bool { return !slotsOf(t, c).Install.Valid() }, waitFor, tick)
	assert.Equal(t, int32(1), h.client.installCalls.Load())
}

func TestReconnect_IsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	p := newRecordingPresenter()
	c := h.attached(p)
	ctx := context.Background()

	h.waitVersionCalls(1)
	pending := slotsOf(t, c).QueryVersion
	require.True(t, pending.Valid())

	require.NoError(t, c.Detach(ctx))
	require.NoError(t, c.Attach(ctx, h.worker))
	assert.Equal(t, pending, slotsOf(t, c).QueryVersion, "slot survives reconnect")

	h.client.versions <- reply{}
	require.Eventually(t, func() bool { return installEnabled(p.last()) }, waitFor, tick)
	h.waitRegistryEmpty()

	assert.Equal(t, 1, p.countRenders(installEnabled))
	assert.Equal(t, int32(1), h.client.versionCalls.Load())
}

func TestReconnect_DeliversResultCompletedWhileDetached(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	p := newRecordingPresenter()
	c := h.attached(p)
	ctx := context.Background()

	h.waitVersionCalls(1)
	id := slotsOf(t, c).QueryVersion
	require.NoError(t, c.Detach(ctx))

	h.client.versions <- reply{}
	h.waitCompleted(id)
	assert.Equal(t, 0, p.countRenders(installEnabled))

	require.NoError(t, c.Attach(ctx, h.worker))
	require.Eventually(t, func() bool { return installEnabled(p.last()) }, waitFor, tick)
	h.waitRegistryEmpty()
	assert.Equal(t, 1, p.countRenders(installEnabled))
}

func TestRecreate_DeliversToNewControllerOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	ctx := context.Background()

	oldPresenter := newRecordingPresenter()
	old := h.attached(oldPresenter)
	h.waitVersionCalls(1)

	require.NoError(t, old.Shutdown(ctx))
	bundle, err := old.Save(ctx)
	require.NoError(t, err)
	require.True(t, bundle.Slots.QueryVersion.Valid())
	assert.Empty(t, bundle.PendingRelease)

	newPresenter := newRecordingPresenter()
	recreated := h.newController(newPresenter)
	require.NoError(t, recreated.Restore(ctx, bundle))
	require.NoError(t, recreated.Attach(ctx, h.worker))

	h.client.versions <- reply{version: version.MustParse("9.0.0")}
	require.Eventually(t, func() bool { return installEnabled(newPresenter.last()) }, waitFor, tick)
	h.waitRegistryEmpty()

	assert.Equal(t, 1, newPresenter.countRenders(installEnabled))
	assert.Equal(t, 0, oldPresenter.countRenders(installEnabled))
	assert.Equal(t, int32(1), h.client.versionCalls.Load(), "restored slot is reused, not re-queried")
	assert.ErrorIs(t, old.Attach(ctx, h.worker), ErrDestroyed)
}

func TestDestroy_WhileAttachedReleasesPending(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	p := newRecordingPresenter()
	c := h.attached(p)
	ctx := context.Background()

	h.waitVersionCalls(1)
	id := slotsOf(t, c).QueryVersion

	require.NoError(t, c.Destroy(ctx))

	info, err := h.worker.Registry().Get(id)
	require.NoError(t, err)
	assert.True(t, info.Released)

	h.client.versions <- reply{}
	h.waitRegistryEmpty()
	assert.Equal(t, 0, p.countRenders(installEnabled))

	bundle, err := c.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, EmptySlots(), bundle.Slots)
	assert.Empty(t, bundle.PendingRelease)
}

func TestDestroy_WhileDetachedDefersRelease(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	ctx := context.Background()

	c := h.attached(newRecordingPresenter())
	h.waitVersionCalls(1)
	id := slotsOf(t, c).QueryVersion

	require.NoError(t, c.Detach(ctx))
	require.NoError(t, c.Destroy(ctx))

	bundle, err := c.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, EmptySlots(), bundle.Slots)
	assert.Equal(t, []task.ID{id}, bundle.PendingRelease)

	// Nobody released it yet, so the completed task is retained.
	h.client.versions <- reply{}
	h.waitCompleted(id)

	successor := h.newController(newRecordingPresenter())
	require.NoError(t, successor.Restore(ctx, bundle))
	require.NoError(t, successor.Attach(ctx, h.worker))

	_, err = h.worker.Registry().Get(id)
	assert.ErrorIs(t, err, task.ErrUnknownTask)
}

func TestRestore_UnknownTaskClearsSlot(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	ctx := context.Background()

	c := h.newController(newRecordingPresenter())
	stale := Bundle{Slots: Slots{QueryVersion: 41, Install: 42, Uninstall: task.InvalidID}}
	require.NoError(t, c.Restore(ctx, stale))
	require.NoError(t, c.Attach(ctx, h.worker))

	slots := slotsOf(t, c)
	assert.Equal(t, task.InvalidID, slots.Install)
	// The stale version slot is cleared and a fresh query issued.
	assert.NotEqual(t, task.ID(41), slots.QueryVersion)
	h.waitVersionCalls(1)

	assert.ErrorIs(t, c.Restore(ctx, stale), ErrAlreadyAttached)
}

func TestSetParallelThreads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "4", want: 4},
		{raw: " 6 ", want: 6},
		{raw: "1", want: 1},
		{raw: "0", want: settings.DefaultPatchingThreads, wantErr: true},
		{raw: "-3", want: settings.DefaultPatchingThreads, wantErr: true},
		{raw: "abc", want: settings.DefaultPatchingThreads, wantErr: true},
		{raw: "", want: settings.DefaultPatchingThreads, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(fmt.Sprintf("%q", tt.raw), func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, true)
			c := h.newController(newRecordingPresenter())

			err := c.SetParallelThreads(context.Background(), tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.want, h.store.GetInt(settings.KeyParallelPatching, settings.DefaultPatchingThreads))
			st := stateOf(t, c)
			assert.Equal(t, tt.want, st.ParallelThreads)
			assert.Equal(t, fmt.Sprintf(SummaryParallelThreads, tt.want), st.ParallelSummary)
		})
	}
}

func TestSetDarkTheme(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	p := newRecordingPresenter()
	c := h.newController(p)

	require.NoError(t, c.SetDarkTheme(context.Background(), true))

	assert.True(t, h.store.GetBool(settings.KeyUseDarkTheme, false))
	assert.True(t, stateOf(t, c).DarkTheme)
	p.mu.Lock()
	assert.Equal(t, 1, p.recreated)
	p.mu.Unlock()
}

func TestDestroyed_RejectsCalls(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	c := h.newController(newRecordingPresenter())
	ctx := context.Background()

	require.NoError(t, c.Destroy(ctx))
	assert.ErrorIs(t, c.ClickInstall(ctx), ErrDestroyed)
	assert.ErrorIs(t, c.SetDarkTheme(ctx, true), ErrDestroyed)
	_, err := c.State(ctx)
	assert.ErrorIs(t, err, ErrDestroyed)
	assert.ErrorIs(t, c.Destroy(ctx), ErrDestroyed)
}

func TestVersionState_InvalidBuildPanics(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t, "app has invalid version number: banana", func() {
		versionState(version.MustParse("1.0.0"), "banana")
	})
	assert.NotPanics(t, func() {
		versionState(nil, "banana")
	})
}

func TestVersionState_SnapshotBuilds(t *testing.T) {
	t.Parallel()

	install, _ := versionState(version.MustParse("9.3.0-r99"), "9.3.0-r100")
	assert.Equal(t, ActionState{Enabled: true, Title: TitleUpdate, Summary: "Update available to 9.3.0-r100"}, install)

	install, _ = versionState(version.MustParse("9.3.0-r123"), "9.3.0")
	assert.Equal(t, ActionState{Enabled: false, Title: TitleUpdate, Summary: SummaryUpToDate}, install)

	install, _ = versionState(version.MustParse("9.3.0"), "9.3.0-r1")
	assert.True(t, install.Enabled)
}
