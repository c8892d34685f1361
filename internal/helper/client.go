package helper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/phrazzld/bootui/internal/config"
	"github.com/phrazzld/bootui/internal/redact"
	"github.com/phrazzld/bootui/internal/service/auth"
	"github.com/phrazzld/bootui/internal/task"
	"github.com/phrazzld/bootui/internal/version"
)

// Client performs boot UI actions through the helper daemon.
//
// A returned error means the daemon could not be asked; a false success
// means it was asked and the action failed.
type Client interface {
	GetVersion(ctx context.Context) (*version.Version, error)
	Install(ctx context.Context, build *version.Version) (bool, error)
	Uninstall(ctx context.Context) (bool, error)
}

// HTTPClient is the Client used by the worker.
type HTTPClient struct {
	baseURL     string
	httpClient  *http.Client
	tokens      auth.JWTService
	subject     string
	minProtocol int
	logger      *slog.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the daemon at cfg.URL. subject names the
// caller in issued tokens.
func NewHTTPClient(cfg config.HelperConfig, tokens auth.JWTService, subject string, logger *slog.Logger) *HTTPClient {
	minProtocol := cfg.MinProtocol
	if minProtocol <= 0 {
		minProtocol = 1
	}
	return &HTTPClient{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		tokens:      tokens,
		subject:     subject,
		minProtocol: minProtocol,
		logger:      logger.With("component", "helper_client"),
	}
}

// GetVersion returns the installed boot UI version, or nil if none is installed.
func (c *HTTPClient) GetVersion(ctx context.Context) (*version.Version, error) {
	var resp VersionResponse
	if err := c.do(ctx, "get_version", http.MethodGet, PathVersion, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Installed {
		return nil, nil
	}
	v, err := version.Parse(resp.Version)
	if err != nil {
		return nil, connErr("get_version", task.ReasonProtocol, err)
	}
	return v, nil
}

// Install asks the daemon to install build.
func (c *HTTPClient) Install(ctx context.Context, build *version.Version) (bool, error) {
	var resp ActionResponse
	req := InstallRequest{Build: build.String()}
	if err := c.do(ctx, "install", http.MethodPost, PathInstall, req, &resp); err != nil {
		return false, err
	}
	if !resp.Success {
		c.logger.Warn("helper reported install failure", "error", resp.Error)
	}
	return resp.Success, nil
}

// Uninstall asks the daemon to remove boot UI.
func (c *HTTPClient) Uninstall(ctx context.Context) (bool, error) {
	var resp ActionResponse
	if err := c.do(ctx, "uninstall", http.MethodPost, PathUninstall, nil, &resp); err != nil {
		return false, err
	}
	if !resp.Success {
		c.logger.Warn("helper reported uninstall failure", "error", resp.Error)
	}
	return resp.Success, nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	err := c.roundTrip(ctx, op, method, path, body, out)
	if err != nil {
		c.logger.Error("helper call failed",
			"op", op,
			"path", path,
			"error", redact.Error(err))
	}
	return err
}

func (c *HTTPClient) roundTrip(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return connErr(op, task.ReasonProtocol, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	token, err := c.tokens.GenerateToken(ctx, c.subject)
	if err != nil {
		return connErr(op, task.ReasonHelperUnauthorized, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return connErr(op, task.ReasonProtocol, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(ProtocolHeader, strconv.Itoa(ProtocolVersion))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return connErr(op, task.ReasonHelperUnreachable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return connErr(op, task.ReasonHelperUnauthorized,
			fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
	}

	remote, err := strconv.Atoi(resp.Header.Get(ProtocolHeader))
	if err != nil {
		return connErr(op, task.ReasonProtocol, fmt.Errorf("missing or invalid %s header", ProtocolHeader))
	}
	if remote < c.minProtocol {
		return connErr(op, task.ReasonHelperVersionTooOld,
			fmt.Errorf("%w: daemon speaks %d, need %d", ErrProtocolTooOld, remote, c.minProtocol))
	}

	if resp.StatusCode != http.StatusOK {
		return connErr(op, task.ReasonProtocol, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return connErr(op, task.ReasonProtocol, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
