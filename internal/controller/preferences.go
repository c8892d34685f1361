package controller

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/bootui/internal/settings"
)

var validate = validator.New()

// parallelThreads is the validated form of the thread count preference.
type parallelThreads struct {
	Count int `validate:"gte=1"`
}

// SetParallelThreads parses raw as a thread count of at least one and
// persists it. Invalid input keeps the previous value and returns
// ErrInvalidInput.
func (c *Controller) SetParallelThreads(ctx context.Context, raw string) error {
	return c.do(ctx, func() error {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			c.logger.Debug("rejected thread count", "value", raw, "error", err)
			return fmt.Errorf("%w: %q is not a number", ErrInvalidInput, raw)
		}
		if err := validate.Struct(parallelThreads{Count: n}); err != nil {
			c.logger.Debug("rejected thread count", "value", raw, "error", err)
			return fmt.Errorf("%w: thread count must be at least 1", ErrInvalidInput)
		}

		c.settings.SetInt(settings.KeyParallelPatching, n)
		c.state.ParallelThreads = n
		c.state.ParallelSummary = fmt.Sprintf(SummaryParallelThreads, n)
		c.render()
		return nil
	})
}

// SetDarkTheme persists the theme and asks the host to rebuild itself.
func (c *Controller) SetDarkTheme(ctx context.Context, enabled bool) error {
	return c.do(ctx, func() error {
		c.settings.SetBool(settings.KeyUseDarkTheme, enabled)
		c.state.DarkTheme = enabled
		c.presenter.RecreateHost()
		return nil
	})
}
