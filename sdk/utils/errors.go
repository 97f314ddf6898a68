// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by the SDK wraps exactly one of these,
// so callers can branch with errors.Is.
var (
	ErrConfiguration        = errors.New("configuration error")
	ErrTransport            = errors.New("transport error")
	ErrProtocol             = errors.New("protocol error")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrTransferFailed       = errors.New("transfer failed")
)

// Wrap tags err with kind while keeping err itself matchable.
func Wrap(kind error, err error, format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	if err == nil {
		return fmt.Errorf("%w: %s", kind, msg)
	}
	return fmt.Errorf("%w: %s: %w", kind, msg, err)
}

// TransferFailedError is returned when the transfer client exits non-zero,
// cannot be started, or is cancelled.
type TransferFailedError struct {
	Argv     []string
	ExitCode int // -1 when the process never produced an exit status
	Output   []byte
	Err      error
}

func (e *TransferFailedError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrTransferFailed.Error())
	if len(e.Argv) > 0 {
		sb.WriteString(": ")
		sb.WriteString(e.Argv[0])
	}
	if e.ExitCode >= 0 {
		fmt.Fprintf(&sb, " exited with status %d", e.ExitCode)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	if out := strings.TrimSpace(string(e.Output)); out != "" {
		sb.WriteString("\n")
		sb.WriteString(out)
	}
	return sb.String()
}

func (e *TransferFailedError) Unwrap() error { return e.Err }

func (e *TransferFailedError) Is(target error) bool { return target == ErrTransferFailed }
