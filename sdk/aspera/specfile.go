// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package aspera

import (
	"os"

	"sigs.k8s.io/yaml"

	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

// LoadSpecFile reads a saved transfer spec. YAML and JSON are both fine.
func LoadSpecFile(path string) (*TransferSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.Wrap(utils.ErrConfiguration, err, "failed to read transfer spec file")
	}
	return ParseSpec(data)
}

// ParseSpec decodes a YAML or JSON transfer spec document.
func ParseSpec(data []byte) (*TransferSpec, error) {
	jsonBytes, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, utils.Wrap(utils.ErrProtocol, err, "yaml to json failed")
	}
	spec, err := DecodeTransferSpec(jsonBytes)
	if err != nil {
		return nil, utils.Wrap(utils.ErrProtocol, err, "invalid transfer spec")
	}
	if err := spec.Validate(); err != nil {
		return nil, utils.Wrap(utils.ErrProtocol, err, "invalid transfer spec")
	}
	return spec, nil
}

// SaveSpecFile writes spec as YAML.
func SaveSpecFile(path string, spec *TransferSpec) error {
	data, err := yaml.Marshal(spec)
	if err != nil {
		return utils.Wrap(utils.ErrProtocol, err, "failed to encode transfer spec")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return utils.Wrap(utils.ErrConfiguration, err, "failed to write transfer spec file")
	}
	return nil
}
