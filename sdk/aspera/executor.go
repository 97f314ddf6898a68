// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package aspera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

const (
	CookieEnv         = "ASPERA_SCP_COOKIE"
	DefaultClientName = "pyxnat"

	// DefaultWaitDelay is how long Run keeps reading output after ascp was
	// killed before it closes the pipes itself.
	DefaultWaitDelay = 2 * time.Second
)

// Cookie identifies the archive user and client to the Aspera server.
type Cookie struct {
	User          string
	ClientName    string
	ClientVersion string
}

func (c Cookie) String() string {
	name := c.ClientName
	if name == "" {
		name = DefaultClientName
	}
	return fmt.Sprintf("XDATUser=%s;User-Agent=%s %s/%s %s",
		c.User, name, c.ClientVersion, runtime.Compiler, runtime.Version())
}

// Executor runs compiled ascp commands and waits for them.
type Executor struct {
	// InheritEnv passes the caller's environment to ascp besides the cookie.
	InheritEnv bool
	// Timeout bounds a single run; zero means only ctx applies.
	Timeout time.Duration
	// WaitDelay defaults to DefaultWaitDelay.
	WaitDelay time.Duration
}

// Run executes argv with the cookie set and returns the combined output.
// Any failure, including a non-zero exit, is a *utils.TransferFailedError.
func (e *Executor) Run(ctx context.Context, argv []string, cookie Cookie) ([]byte, error) {
	if len(argv) == 0 {
		return nil, &utils.TransferFailedError{ExitCode: -1, Err: errors.New("empty command")}
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	env := []string{CookieEnv + "=" + cookie.String()}
	if e.InheritEnv {
		env = append(os.Environ(), env...)
	}
	cmd.Env = env
	// ascp forks helpers that inherit the output pipe: kill the whole group
	// and stop waiting on the pipe shortly after.
	killProcessGroup(cmd)
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	utils.Infof("Running %s", CommandLine(argv))
	start := time.Now()
	out, err := cmd.CombinedOutput()
	if errors.Is(err, exec.ErrWaitDelay) && ctx.Err() == nil {
		// ascp exited 0; a leftover helper held the output open
		utils.Warnf("ascp output was still open %s after exit, stopped reading", cmd.WaitDelay)
		err = nil
	}
	if err == nil {
		utils.Infof("Transfer completed in %s", time.Since(start).Truncate(100*time.Millisecond))
		return out, nil
	}

	tf := &utils.TransferFailedError{Argv: argv, ExitCode: -1, Output: out, Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		tf.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		tf.Err = ctxErr
	}
	return out, tf
}
