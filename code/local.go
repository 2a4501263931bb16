package code

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hupe1980/agentchat/logging"
)

type interpreter struct {
	command   string
	extension string
}

var interpreters = map[string]interpreter{
	"python":  {"python3", "py"},
	"python3": {"python3", "py"},
	"py":      {"python3", "py"},
	"sh":      {"sh", "sh"},
	"shell":   {"sh", "sh"},
	"bash":    {"bash", "sh"},
}

// TimeoutExitCode is reported for blocks killed after the timeout.
const TimeoutExitCode = 124

var filenameDirective = regexp.MustCompile(`^\s*(?:#|//)\s*filename:\s*([\w./-]+)\s*$`)

// LocalOptions configure a LocalExecutor.
type LocalOptions struct {
	WorkDir string
	Timeout time.Duration
	Logger  logging.Logger
}

// LocalExecutor writes each block to a file inside WorkDir and runs it with
// the matching interpreter. It provides no sandboxing.
type LocalExecutor struct {
	opts   LocalOptions
	logger logging.Logger
}

// NewLocalExecutor creates an executor; WorkDir defaults to "code" and
// Timeout to 60 seconds.
func NewLocalExecutor(optFns ...func(o *LocalOptions)) *LocalExecutor {
	opts := LocalOptions{WorkDir: "code", Timeout: 60 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &LocalExecutor{opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

// Execute implements Executor.
func (e *LocalExecutor) Execute(ctx context.Context, blocks []Block) (Result, error) {
	if err := os.MkdirAll(e.opts.WorkDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create work dir: %w", err)
	}

	var (
		result Result
		output strings.Builder
	)
	for _, b := range blocks {
		interp, ok := interpreters[b.Language]
		if !ok {
			result.ExitCode = 1
			output.WriteString("unknown language " + b.Language)
			break
		}

		name, err := fileName(b, interp)
		if err != nil {
			result.ExitCode = 1
			output.WriteString(err.Error())
			break
		}
		path := filepath.Join(e.opts.WorkDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return Result{}, fmt.Errorf("create code dir: %w", err)
		}
		if err := os.WriteFile(path, []byte(b.Code), 0o644); err != nil {
			return Result{}, fmt.Errorf("write code file: %w", err)
		}
		result.Files = append(result.Files, name)

		code, out := e.run(ctx, interp.command, name)
		output.WriteString(out)
		e.logger.Info("code.block.executed", "language", b.Language, "file", name, "exit_code", code)
		if code != 0 {
			result.ExitCode = code
			break
		}
	}

	result.Output = output.String()
	return result, nil
}

func (e *LocalExecutor) run(ctx context.Context, command, file string) (int, string) {
	runCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, command, file)
	cmd.Dir = e.opts.WorkDir
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return TimeoutExitCode, string(out) + "\nTimeout"
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), string(out)
		}
		return 1, string(out) + err.Error()
	}
	return 0, string(out)
}

// fileName honours a leading "# filename: x" directive, otherwise derives a
// stable name from the content hash.
func fileName(b Block, interp interpreter) (string, error) {
	first, _, _ := strings.Cut(b.Code, "\n")
	if m := filenameDirective.FindStringSubmatch(first); m != nil {
		name := filepath.Clean(m[1])
		if filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("filename %s escapes the work directory", m[1])
		}
		return name, nil
	}
	sum := sha256.Sum256([]byte(b.Code))
	return "tmp_code_" + hex.EncodeToString(sum[:4]) + "." + interp.extension, nil
}
