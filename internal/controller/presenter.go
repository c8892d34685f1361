package controller

import "github.com/phrazzld/bootui/internal/task"

// Dialog tags. Presenters must treat showing an already visible tag as a no-op.
const (
	ProgressDialogTag = "boot_ui_progress_dialog"
	ConfirmDialogTag  = "boot_ui_confirm_dialog"
)

// Display strings
const (
	TitleInstall   = "Install"
	TitleUpdate    = "Update"
	TitleUninstall = "Uninstall"

	SummaryPleaseWait      = "Please wait..."
	SummaryNotSupported    = "Boot UI not supported"
	SummaryNotInstalled    = "Not installed"
	SummaryUpToDate        = "Up to date"
	SummaryUpdateAvailable = "Update available to %s"
	SummaryUnavailable     = "Could not reach the boot UI helper"
	SummaryParallelThreads = "Patch using %d threads"

	MessageInstallSuccess   = "Boot UI installed"
	MessageInstallFailure   = "Failed to install boot UI"
	MessageUninstallSuccess = "Boot UI uninstalled"
	MessageUninstallFailure = "Failed to uninstall boot UI"
	MessageUpdateRamdisk    = "The boot UI was installed. Update the ramdisk of every ROM to use it."
)

// ActionState is what the host shows for one action entry.
type ActionState struct {
	Enabled bool   `json:"enabled"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
}

// DisplayState is the full set of values the host renders.
type DisplayState struct {
	Install         ActionState `json:"install"`
	Uninstall       ActionState `json:"uninstall"`
	ParallelThreads int         `json:"parallel_threads"`
	ParallelSummary string      `json:"parallel_summary"`
	DarkTheme       bool        `json:"dark_theme"`
}

// Presenter is the host surface the controller drives. Every method is
// called on the controller's home goroutine.
type Presenter interface {
	Render(state DisplayState)
	ShowProgress(tag string)
	DismissProgress(tag string)
	ShowConfirmation(tag, message string)
	Notify(message string)
	ShowConnectionError(fault task.Fault)
	// RecreateHost asks the host to tear down and rebuild its UI, for
	// example after a theme change.
	RecreateHost()
}
