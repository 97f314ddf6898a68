// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils_test

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

func TestWrapKeepsKindAndCause(t *testing.T) {
	err := utils.Wrap(utils.ErrTransport, io.ErrUnexpectedEOF, "POST %s", "/download")
	assert.ErrorIs(t, err, utils.ErrTransport)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, utils.ErrProtocol)
	assert.Equal(t, "transport error: POST /download: unexpected EOF", err.Error())

	err = utils.Wrap(utils.ErrConfiguration, nil, "HOME is not set")
	assert.Equal(t, "configuration error: HOME is not set", err.Error())
}

func TestTransferFailedError(t *testing.T) {
	err := error(&utils.TransferFailedError{
		Argv:     []string{"/opt/ascp", "--mode=recv"},
		ExitCode: 3,
		Output:   []byte("Session Stop (Error: disk full)\n"),
		Err:      errors.New("exit status 3"),
	})
	assert.ErrorIs(t, err, utils.ErrTransferFailed)
	assert.Contains(t, err.Error(), "/opt/ascp exited with status 3")
	assert.Contains(t, err.Error(), "disk full")

	var tf *utils.TransferFailedError
	assert.True(t, errors.As(err, &tf))
	assert.Equal(t, 3, tf.ExitCode)
}
