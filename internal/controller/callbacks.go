package controller

import "github.com/phrazzld/bootui/internal/task"

// onTaskResult runs on the home goroutine. Results for ids no slot holds
// any more are stale and dropped.
func (c *Controller) onTaskResult(id task.ID, result task.Result) {
	slot := c.slots.lookup(id)
	if slot == nil {
		c.logger.Debug("dropping result for unowned task", "task_id", id, "task_kind", result.Kind)
		return
	}

	switch slot {
	case &c.slots.QueryVersion:
		c.onHaveVersion(result)
	case &c.slots.Install:
		c.onInstalled(result)
	case &c.slots.Uninstall:
		c.onUninstalled(result)
	}
}

func (c *Controller) onHaveVersion(result task.Result) {
	c.releaseSlot(&c.slots.QueryVersion)

	if result.Faulted() {
		c.state.Install = ActionState{Title: c.state.Install.Title, Summary: SummaryUnavailable}
		c.state.Uninstall = ActionState{Title: TitleUninstall, Summary: SummaryUnavailable}
		c.render()
		c.reportFault(*result.Fault)
		return
	}
	c.faultNotified = false

	c.state.Install, c.state.Uninstall = versionState(result.Version, c.build)
	c.logger.Debug("boot UI version received",
		"installed", result.Version.String(),
		"build", c.build)
	c.render()
}

func (c *Controller) onInstalled(result task.Result) {
	c.releaseSlot(&c.slots.Install)
	c.presenter.DismissProgress(ProgressDialogTag)

	if result.Faulted() {
		c.reportFault(*result.Fault)
		return
	}
	c.faultNotified = false

	c.ensureVersionQuery()

	if !result.Success {
		c.presenter.Notify(MessageInstallFailure)
		return
	}
	c.presenter.Notify(MessageInstallSuccess)
	c.presenter.ShowConfirmation(ConfirmDialogTag, MessageUpdateRamdisk)
}

func (c *Controller) onUninstalled(result task.Result) {
	c.releaseSlot(&c.slots.Uninstall)
	c.presenter.DismissProgress(ProgressDialogTag)

	if result.Faulted() {
		c.reportFault(*result.Fault)
		return
	}
	c.faultNotified = false

	c.ensureVersionQuery()

	if result.Success {
		c.presenter.Notify(MessageUninstallSuccess)
	} else {
		c.presenter.Notify(MessageUninstallFailure)
	}
}

// onConnectionFault redirects to the host's error flow. The slot is kept:
// the faulted action still completes and its result clears the slot.
func (c *Controller) onConnectionFault(id task.ID, fault task.Fault) {
	c.logger.Warn("helper connection fault",
		"task_id", id,
		"reason", fault.Reason,
		"message", fault.Message)
	c.reportFault(fault)
}

// reportFault shows the connection error once per failed attempt.
func (c *Controller) reportFault(fault task.Fault) {
	if c.faultNotified {
		return
	}
	c.faultNotified = true
	c.presenter.ShowConnectionError(fault)
}
