// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package aspera_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectomedb/cdb-cli-sdk/sdk/aspera"
	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

var testProfile = aspera.Profile{
	Platform: aspera.Linux,
	BinDir:   "/opt/connect/bin",
	EtcDir:   "/opt/connect/etc",
	Ascp:     "/opt/connect/bin/ascp",
}

func TestCompileMinimal(t *testing.T) {
	spec := &aspera.TransferSpec{
		Paths:           []aspera.PathPair{{Source: "/a"}, {Source: "/b"}},
		DestinationRoot: "/out",
	}
	argv, err := aspera.Compile(spec, testProfile)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/opt/connect/bin/ascp", "-p", "-i", "/opt/connect/etc/asperaweb_id_dsa.openssh",
		"--mode=recv", "/a", "/b", "/out",
	}, argv)
}

func TestCompileDefaultsToWorkingDirectory(t *testing.T) {
	argv, err := aspera.Compile(&aspera.TransferSpec{Paths: []aspera.PathPair{{Source: "/a"}}}, testProfile)
	require.NoError(t, err)
	assert.Equal(t, ".", argv[len(argv)-1])
	assert.Equal(t, "/a", argv[len(argv)-2])
}

func TestCompileParams(t *testing.T) {
	spec := &aspera.TransferSpec{
		Direction: "receive",
		Paths:     []aspera.PathPair{{Source: "/HCP/100307/3T_Structural_preproc.zip", Destination: "x"}},
		Params: map[string]string{
			"token":            "ATV7_secret",
			"ssh_port":         "33001",
			"remote_host":      "aspera.humanconnectome.org",
			"remote_user":      "hcpaspera",
			"target_rate_kbps": "1000000",
			"min_rate_kbps":    "0",
			"fasp_port":        "33001",
			"rate_policy":      "fair",
			"cookie":           "ignored",
			"http_fallback":    "true",
		},
	}
	argv, err := aspera.Compile(spec, testProfile)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/opt/connect/bin/ascp", "-p", "-i", "/opt/connect/etc/asperaweb_id_dsa.openssh",
		"--user=hcpaspera",
		"-m", "0",
		"-l", "1000000",
		"-O", "33001",
		"-P", "33001",
		"--host=aspera.humanconnectome.org",
		"--policy=fair",
		"-W", "ATV7_secret",
		"--mode=recv",
		"/HCP/100307/3T_Structural_preproc.zip",
		".",
	}, argv)
}

func TestCompileRejectsSend(t *testing.T) {
	spec := &aspera.TransferSpec{Direction: "send", Paths: []aspera.PathPair{{Source: "/a"}}}
	argv, err := aspera.Compile(spec, testProfile)
	assert.ErrorIs(t, err, utils.ErrUnsupportedOperation)
	assert.Nil(t, argv)
}

func TestCompileEmptyPaths(t *testing.T) {
	argv, err := aspera.Compile(&aspera.TransferSpec{}, testProfile)
	require.NoError(t, err)
	assert.Equal(t, []string{"--mode=recv", "."}, argv[len(argv)-2:])
}

func TestCompileIsDeterministic(t *testing.T) {
	spec := &aspera.TransferSpec{
		Paths: []aspera.PathPair{{Source: "/a"}},
		Params: map[string]string{
			"remote_user": "u", "remote_host": "h", "ssh_port": "1", "token": "t",
		},
	}
	first, err := aspera.Compile(spec, testProfile)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := aspera.Compile(spec, testProfile)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestParamFlagsIsACopy(t *testing.T) {
	pf := aspera.ParamFlags()
	require.Len(t, pf, 8)
	pf[0].Flag.Name = "--changed"
	assert.Equal(t, "--user", aspera.ParamFlags()[0].Flag.Name)
}

func TestCommandLineMasksToken(t *testing.T) {
	line := aspera.CommandLine([]string{"/opt/Aspera Connect/ascp", "-W", "secret", "--mode=recv", "/a", "."})
	assert.Equal(t, "'/opt/Aspera Connect/ascp' -W **** --mode=recv /a .", line)
}

func TestCompileRejectsEmptyOrNullDirection(t *testing.T) {
	for _, body := range []string{
		`{"direction":"","paths":[{"source":"/a"}]}`,
		`{"direction":null,"paths":[{"source":"/a"}]}`,
	} {
		spec, err := aspera.DecodeTransferSpec([]byte(body))
		require.NoError(t, err, body)
		assert.True(t, spec.HasDirection(), body)

		argv, err := aspera.Compile(spec, testProfile)
		assert.ErrorIs(t, err, utils.ErrUnsupportedOperation, body)
		assert.Nil(t, argv, body)
	}

	spec, err := aspera.DecodeTransferSpec([]byte(`{"direction":"receive","paths":[{"source":"/a"}]}`))
	require.NoError(t, err)
	_, err = aspera.Compile(spec, testProfile)
	assert.NoError(t, err)

	spec, err = aspera.DecodeTransferSpec([]byte(`{"paths":[{"source":"/a"}]}`))
	require.NoError(t, err)
	assert.False(t, spec.HasDirection())
	_, err = aspera.Compile(spec, testProfile)
	assert.NoError(t, err)
}

func TestMaskArgv(t *testing.T) {
	argv := []string{"/opt/ascp", "-P", "33001", "-W", "secret", "--mode=recv", "/a", "."}
	masked := aspera.MaskArgv(argv)
	assert.Equal(t, []string{"/opt/ascp", "-P", "33001", "-W", "****", "--mode=recv", "/a", "."}, masked)
	assert.Equal(t, "secret", argv[4])
}
