package exiftool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"mediakeep/internal/exif"
	"mediakeep/internal/services"
)

// Fixed flags. -m tolerates minor warnings so list-valued tags accept repeated
// additions, and -overwrite_original edits in place without _original copies.
// The first -charset covers tag values, the second the file name argument.
var (
	batchFlags    = []string{"-m", "-overwrite_original", "-api", "QuickTimeUTC", "-charset", "utf8", "-charset", "filename=utf8"}
	fallbackFlags = []string{"-m", "-overwrite_original"}
)

var singleUpdatePattern = regexp.MustCompile(`(?i)(^|[^0-9])1 (image )?files? updated`)

// Result captures one exiftool process execution.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Diagnostic returns the most useful text for an operator: stderr when
// present, otherwise stdout.
func (r Result) Diagnostic() string {
	if msg := strings.TrimSpace(r.Stderr); msg != "" {
		return msg
	}
	return strings.TrimSpace(r.Stdout)
}

// ConfirmsSingleUpdate reports whether exiftool's stdout states that exactly
// one file was updated. exiftool exits 0 even when it changed nothing, so the
// exit code alone is not enough.
func ConfirmsSingleUpdate(stdout string) bool {
	return singleUpdatePattern.MatchString(stdout)
}

// BatchSucceeded applies the batch success contract: exit 0 and a single-file
// update confirmation.
func BatchSucceeded(r Result) bool {
	return r.ExitCode == 0 && ConfirmsSingleUpdate(r.Stdout)
}

// SingleSucceeded applies the fallback success contract: exit 0.
func SingleSucceeded(r Result) bool {
	return r.ExitCode == 0
}

// Executor abstracts command execution for testability. A non-zero exit is
// reported through Result, not as an error; errors mean the process could not
// run at all.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (Result, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps exiftool CLI interactions.
type Client struct {
	binary string
	exec   Executor
}

// New constructs an exiftool client for an already located binary.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("exiftool binary required")
	}
	client := &Client{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the executable the client invokes.
func (c *Client) Binary() string { return c.binary }

// BatchArgs returns the argument vector (without the binary) for writing all
// directives to path in one invocation.
func BatchArgs(path string, directives []exif.Directive) []string {
	args := make([]string, 0, len(batchFlags)+len(directives)+1)
	args = append(args, batchFlags...)
	for _, d := range directives {
		args = append(args, d.Arg)
	}
	return append(args, path)
}

// SingleArgs returns the argument vector (without the binary) for one
// fallback directive.
func SingleArgs(path string, directive exif.Directive) []string {
	args := make([]string, 0, len(fallbackFlags)+2)
	args = append(args, fallbackFlags...)
	return append(args, directive.Arg, path)
}

// Invoke writes every directive to path in a single exiftool execution.
func (c *Client) Invoke(ctx context.Context, path string, directives []exif.Directive) (Result, error) {
	if len(directives) == 0 {
		return Result{}, errors.New("exiftool invoke: no directives")
	}
	res, err := c.exec.Run(ctx, c.binary, BatchArgs(path, directives))
	if err != nil {
		return res, services.Wrap(services.ErrBatchInvocation, "exiftool", "invoke", path, err)
	}
	return res, nil
}

// InvokeSingle writes one directive to path.
func (c *Client) InvokeSingle(ctx context.Context, path string, directive exif.Directive) (Result, error) {
	res, err := c.exec.Run(ctx, c.binary, SingleArgs(path, directive))
	if err != nil {
		return res, services.Wrap(services.ErrDirectiveInvocation, "exiftool", "invoke single", directive.Arg, err)
	}
	return res, nil
}

// Locate resolves the exiftool executable. A missing tool is fatal for a run.
func Locate(binary string) (string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "exiftool"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return "", services.Wrap(services.ErrToolNotFound, "preflight", "locate", binary, err)
	}
	return resolved, nil
}

// Version runs `exiftool -ver` and returns the reported version.
func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := c.exec.Run(ctx, c.binary, []string{"-ver"})
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("exiftool -ver exited %d: %s", res.ExitCode, res.Diagnostic())
	}
	return strings.TrimSpace(res.Stdout), nil
}

type commandExecutor struct{}

// Run executes the tool to completion. Cancellation of ctx does not interrupt
// a running write; the tool is never killed mid-file.
func (commandExecutor) Run(ctx context.Context, binary string, args []string) (Result, error) {
	cmd := exec.CommandContext(context.WithoutCancel(ctx), binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, fmt.Errorf("run %s: %w", binary, err)
	}
	return res, nil
}
