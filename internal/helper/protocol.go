package helper

// ProtocolVersion is the protocol revision spoken by this build.
const ProtocolVersion = 2

// ProtocolHeader carries the sender's protocol revision in both directions.
const ProtocolHeader = "X-Bootui-Helper-Protocol"

// Routes served by the helper daemon.
const (
	PathHealth    = "/health"
	PathVersion   = "/v1/version"
	PathInstall   = "/v1/install"
	PathUninstall = "/v1/uninstall"
)

// VersionResponse reports what is installed on the device.
type VersionResponse struct {
	Installed bool   `json:"installed"`
	Version   string `json:"version,omitempty"`
}

// InstallRequest asks the daemon to install the given build.
type InstallRequest struct {
	Build string `json:"build" validate:"required"`
}

// ActionResponse is the outcome of install or uninstall.
type ActionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
