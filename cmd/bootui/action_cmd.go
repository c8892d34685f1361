package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/phrazzld/bootui/internal/controller"
	"github.com/phrazzld/bootui/internal/probe"
	"github.com/phrazzld/bootui/internal/task"
	"github.com/spf13/cobra"
)

const pollInterval = 50 * time.Millisecond

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the boot UI is installed and up to date",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runController(cmd.Context(), cmd.OutOrStdout(), nil)
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install or update the boot UI",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runController(cmd.Context(), cmd.OutOrStdout(), func(ctx context.Context, c *controller.Controller, st controller.DisplayState) error {
			if !st.Install.Enabled {
				return fmt.Errorf("install not available: %s", st.Install.Summary)
			}
			return c.ClickInstall(ctx)
		})
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the boot UI",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runController(cmd.Context(), cmd.OutOrStdout(), func(ctx context.Context, c *controller.Controller, st controller.DisplayState) error {
			if !st.Uninstall.Enabled {
				return fmt.Errorf("uninstall not available: %s", st.Uninstall.Summary)
			}
			return c.ClickUninstall(ctx)
		})
	},
}

type clickFunc func(ctx context.Context, c *controller.Controller, st controller.DisplayState) error

// runController attaches a controller to an in-process worker, waits for
// the version query, optionally runs click and waits for that too.
func runController(ctx context.Context, out io.Writer, click clickFunc) error {
	app, err := newApplication(configPath)
	if err != nil {
		return err
	}

	store, err := app.openSettings(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			app.logger.Error("failed to close settings", "error", err)
		}
	}()

	w := app.newWorker()
	w.Run()
	defer w.Stop()

	presenter := newConsolePresenter(out)
	c := controller.New(controller.Options{
		Build:     app.config.App.Build,
		Presenter: presenter,
		Probe:     probe.NewHostProbe(app.config.Probe, app.logger),
		Settings:  store,
		Logger:    app.logger,
	})
	defer func() {
		if err := c.Destroy(context.Background()); err != nil && !errors.Is(err, controller.ErrDestroyed) {
			app.logger.Error("failed to destroy controller", "error", err)
		}
	}()

	// Every helper call is bounded by the client timeout; allow for the
	// version query, the action and the re-query.
	ctx, cancel := context.WithTimeout(ctx, 3*app.config.Helper.Timeout+time.Second)
	defer cancel()

	if err := c.Attach(ctx, w); err != nil {
		return fmt.Errorf("attach controller: %w", err)
	}
	if err := waitIdle(ctx, c); err != nil {
		return err
	}

	if click != nil {
		if fault, ok := presenter.fault(); ok {
			return fmt.Errorf("helper unavailable: %s", fault)
		}
		st, err := c.State(ctx)
		if err != nil {
			return err
		}
		if err := click(ctx, c, st); err != nil {
			return err
		}
		if err := waitIdle(ctx, c); err != nil {
			return err
		}
	}

	presenter.printState()
	if fault, ok := presenter.fault(); ok {
		return fmt.Errorf("helper unavailable: %s", fault)
	}
	return nil
}

// waitIdle polls until no slot holds a task.
func waitIdle(ctx context.Context, c *controller.Controller) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		slots, err := c.Slots(ctx)
		if err != nil {
			return err
		}
		if !slots.QueryVersion.Valid() && !slots.Install.Valid() && !slots.Uninstall.Valid() {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", pendingKinds(slots), ctx.Err())
		case <-ticker.C:
		}
	}
}

func pendingKinds(s controller.Slots) string {
	switch {
	case s.Install.Valid():
		return task.KindInstall.String()
	case s.Uninstall.Valid():
		return task.KindUninstall.String()
	default:
		return task.KindQueryVersion.String()
	}
}
