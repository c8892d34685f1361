package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/phrazzld/bootui/internal/controller"
	"github.com/phrazzld/bootui/internal/probe"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change preferences",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPreferences(cmd, func(ctx context.Context, c *controller.Controller) error {
			return nil
		})
	},
}

var threadsCmd = &cobra.Command{
	Use:   "threads <n>",
	Short: "Set the number of parallel patching threads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPreferences(cmd, func(ctx context.Context, c *controller.Controller) error {
			return c.SetParallelThreads(ctx, args[0])
		})
	},
}

var darkThemeCmd = &cobra.Command{
	Use:   "dark-theme <true|false>",
	Short: "Enable or disable the dark theme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := strconv.ParseBool(args[0])
		if err != nil {
			return fmt.Errorf("%w: %q is not a boolean", controller.ErrInvalidInput, args[0])
		}
		return withPreferences(cmd, func(ctx context.Context, c *controller.Controller) error {
			return c.SetDarkTheme(ctx, enabled)
		})
	},
}

func init() {
	settingsCmd.AddCommand(threadsCmd)
	settingsCmd.AddCommand(darkThemeCmd)
}

// withPreferences runs fn against an unattached controller and prints the
// resulting preferences.
func withPreferences(cmd *cobra.Command, fn func(ctx context.Context, c *controller.Controller) error) (err error) {
	ctx := cmd.Context()

	app, err := newApplication(configPath)
	if err != nil {
		return err
	}

	store, err := app.openSettings(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to save settings: %w", cerr)
		}
	}()

	presenter := newConsolePresenter(cmd.OutOrStdout())
	c := controller.New(controller.Options{
		Build:     app.config.App.Build,
		Presenter: presenter,
		Probe:     probe.Static(false),
		Settings:  store,
		Logger:    app.logger,
	})
	defer func() { _ = c.Shutdown(context.Background()) }()

	if err := fn(ctx, c); err != nil {
		return err
	}

	st, err := c.State(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "parallel_threads: %d (%s)\n", st.ParallelThreads, st.ParallelSummary)
	_, _ = fmt.Fprintf(out, "dark_theme: %t\n", st.DarkTheme)
	return nil
}
