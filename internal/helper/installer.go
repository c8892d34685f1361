package helper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phrazzld/bootui/internal/version"
)

// Installer performs the boot UI work on the device.
type Installer interface {
	Installed(ctx context.Context) (*version.Version, error)
	Install(ctx context.Context, build *version.Version) error
	Uninstall(ctx context.Context) error
}

// versionFile holds the installed build inside the install directory.
const versionFile = "VERSION"

// DirInstaller manages a boot UI installation rooted at a directory.
type DirInstaller struct {
	dir string
}

var _ Installer = (*DirInstaller)(nil)

// NewDirInstaller returns an installer for dir. The directory is created on
// first install.
func NewDirInstaller(dir string) *DirInstaller {
	return &DirInstaller{dir: dir}
}

// Installed reads the installed version; nil means not installed.
func (d *DirInstaller) Installed(ctx context.Context) (*version.Version, error) {
	raw, err := os.ReadFile(filepath.Join(d.dir, versionFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read installed version: %w", err)
	}
	v, err := version.Parse(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("installed version file is corrupt: %w", err)
	}
	return v, nil
}

// Install records build as installed, replacing any previous installation.
func (d *DirInstaller) Install(ctx context.Context, build *version.Version) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create install dir: %w", err)
	}

	tmp, err := os.CreateTemp(d.dir, versionFile+".*")
	if err != nil {
		return fmt.Errorf("stage version file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(build.String() + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("write version file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close version file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, versionFile)); err != nil {
		return fmt.Errorf("commit version file: %w", err)
	}
	return nil
}

// Uninstall removes the installation. ErrNotInstalled if there is none.
func (d *DirInstaller) Uninstall(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(d.dir, versionFile))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotInstalled
	}
	if err != nil {
		return fmt.Errorf("remove version file: %w", err)
	}
	return nil
}
