// Package probe decides whether the current device can run the boot UI.
package probe

import (
	"context"
	"log/slog"
	"strings"

	"github.com/phrazzld/bootui/internal/config"
	"github.com/shirou/gopsutil/v3/host"
)

// Probe reports boot UI support for the current device.
type Probe interface {
	SupportsBootUI(ctx context.Context) bool
}

// DefaultPlatforms is used when no platform list is configured.
var DefaultPlatforms = []string{"android", "linux"}

// Static is a Probe with a fixed answer.
type Static bool

func (s Static) SupportsBootUI(context.Context) bool { return bool(s) }

type infoFunc func(ctx context.Context) (*host.InfoStat, error)

// HostProbe matches the host OS and platform reported by gopsutil against
// a list of supported platforms.
type HostProbe struct {
	platforms []string
	force     bool
	info      infoFunc
	logger    *slog.Logger
}

var _ Probe = (*HostProbe)(nil)

// NewHostProbe creates a probe from cfg.
func NewHostProbe(cfg config.ProbeConfig, logger *slog.Logger) *HostProbe {
	platforms := cfg.Platforms
	if len(platforms) == 0 {
		platforms = DefaultPlatforms
	}
	return &HostProbe{
		platforms: platforms,
		force:     cfg.Force,
		info:      host.InfoWithContext,
		logger:    logger.With("component", "probe"),
	}
}

// SupportsBootUI returns false when host detection fails.
func (p *HostProbe) SupportsBootUI(ctx context.Context) bool {
	if p.force {
		return true
	}

	info, err := p.info(ctx)
	if err != nil {
		p.logger.Warn("host detection failed", "error", err)
		return false
	}

	for _, want := range p.platforms {
		if strings.EqualFold(want, info.OS) || strings.EqualFold(want, info.Platform) {
			p.logger.Debug("boot UI supported",
				"os", info.OS,
				"platform", info.Platform,
				"kernel_arch", info.KernelArch)
			return true
		}
	}

	p.logger.Info("boot UI not supported on host",
		"os", info.OS,
		"platform", info.Platform)
	return false
}
