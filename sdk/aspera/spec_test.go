// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package aspera_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectomedb/cdb-cli-sdk/sdk/aspera"
	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

const archiveSpec = `{
  "direction": "receive",
  "remote_host": "aspera.humanconnectome.org",
  "remote_user": "hcpaspera",
  "ssh_port": 33001,
  "fasp_port": 33001,
  "target_rate_kbps": 1000000,
  "http_fallback": true,
  "cookie": null,
  "tags": {"aspera": {"app": "cdb"}},
  "token": "ATV7_abc",
  "paths": [
    {"source": "/HCP/100307.zip", "destination": "100307.zip"},
    {"source": "/HCP/100307.zip.md5"}
  ]
}`

func TestDecodeTransferSpec(t *testing.T) {
	spec, err := aspera.DecodeTransferSpec([]byte(archiveSpec))
	require.NoError(t, err)

	assert.Equal(t, aspera.DirectionReceive, spec.Direction)
	assert.Equal(t, []aspera.PathPair{
		{Source: "/HCP/100307.zip", Destination: "100307.zip"},
		{Source: "/HCP/100307.zip.md5"},
	}, spec.Paths)
	assert.Empty(t, spec.DestinationRoot)

	assert.Equal(t, "33001", spec.Params["ssh_port"])
	assert.Equal(t, "1000000", spec.Params["target_rate_kbps"])
	assert.Equal(t, "true", spec.Params["http_fallback"])
	assert.Equal(t, `{"aspera": {"app": "cdb"}}`, spec.Params["tags"])
	assert.NotContains(t, spec.Params, "cookie")
	assert.Len(t, spec.Params, 8)
}

func TestMaskedSpec(t *testing.T) {
	spec, err := aspera.DecodeTransferSpec([]byte(archiveSpec))
	require.NoError(t, err)

	masked := spec.Masked()
	assert.Equal(t, "****", masked.Params["token"])
	assert.Equal(t, "ATV7_abc", spec.Params["token"])
	assert.Equal(t, spec.Paths, masked.Paths)
	assert.Equal(t, "hcpaspera", masked.Params["remote_user"])
}

func TestSpecFileKeepsEmptyDirection(t *testing.T) {
	spec, err := aspera.DecodeTransferSpec([]byte(`{"direction":"","paths":[{"source":"/a"}]}`))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, aspera.SaveSpecFile(path, spec))
	loaded, err := aspera.LoadSpecFile(path)
	require.NoError(t, err)

	_, err = aspera.Compile(loaded, testProfile)
	assert.ErrorIs(t, err, utils.ErrUnsupportedOperation)
}

func TestDecodeTransferSpecEnvelope(t *testing.T) {
	body := `{"transfer_specs":[{"transfer_spec":{"remote_host":"h","paths":[{"source":"/a"}]}}]}`
	spec, err := aspera.DecodeTransferSpec([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "h", spec.Params["remote_host"])
	assert.Equal(t, "/a", spec.Paths[0].Source)

	_, err = aspera.DecodeTransferSpec([]byte(`{"transfer_specs":[]}`))
	assert.Error(t, err)
}

func TestDecodeTransferSpecRejectsNonObjects(t *testing.T) {
	for _, body := range []string{`null`, `[]`, `"spec"`, `{`} {
		_, err := aspera.DecodeTransferSpec([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestParseSpecYAML(t *testing.T) {
	yml := `
direction: receive
remote_host: aspera.humanconnectome.org
ssh_port: 33001
paths:
  - source: /HCP/100307.zip
destination_root: /data/hcp
`
	spec, err := aspera.ParseSpec([]byte(yml))
	require.NoError(t, err)
	assert.Equal(t, "33001", spec.Params["ssh_port"])
	assert.Equal(t, "/data/hcp", spec.DestinationRoot)

	argv, err := aspera.Compile(spec, testProfile)
	require.NoError(t, err)
	assert.Equal(t, []string{"--mode=recv", "/HCP/100307.zip", "/data/hcp"}, argv[len(argv)-3:])
}

func TestParseSpecMissingSource(t *testing.T) {
	_, err := aspera.ParseSpec([]byte(`{"paths":[{"destination":"x"}]}`))
	assert.ErrorIs(t, err, utils.ErrProtocol)
}

func TestSpecFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")
	spec, err := aspera.DecodeTransferSpec([]byte(archiveSpec))
	require.NoError(t, err)
	spec.DestinationRoot = "/out"

	require.NoError(t, aspera.SaveSpecFile(path, spec))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := aspera.LoadSpecFile(path)
	require.NoError(t, err)

	want, err := aspera.Compile(spec, testProfile)
	require.NoError(t, err)
	got, err := aspera.Compile(loaded, testProfile)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = aspera.LoadSpecFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, utils.ErrConfiguration)
}
