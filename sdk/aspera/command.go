// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package aspera

import (
	"strings"

	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

const (
	modeReceive      = "--mode=recv"
	currentDirectory = "."
)

// FlagKind tells how a value is attached to its flag.
type FlagKind int

const (
	// Long flags take the value inline: --user=alice.
	Long FlagKind = iota
	// Short flags take the value as the next argument: -P 33001.
	Short
)

type Flag struct {
	Kind FlagKind
	Name string
}

func (f Flag) args(value string) []string {
	if f.Kind == Long {
		return []string{f.Name + "=" + value}
	}
	return []string{f.Name, value}
}

// ParamFlag maps a transfer spec field to its ascp flag.
type ParamFlag struct {
	Param string
	Flag  Flag
}

// paramFlags is ordered so the compiled argv does not depend on map order.
var paramFlags = []ParamFlag{
	{"remote_user", Flag{Long, "--user"}},
	{"min_rate_kbps", Flag{Short, "-m"}},
	{"target_rate_kbps", Flag{Short, "-l"}},
	{"fasp_port", Flag{Short, "-O"}},
	{"ssh_port", Flag{Short, "-P"}},
	{"remote_host", Flag{Long, "--host"}},
	{"rate_policy", Flag{Long, "--policy"}},
	{"token", Flag{Short, tokenFlag}},
}

// ParamFlags returns a copy of the supported field-to-flag table.
func ParamFlags() []ParamFlag {
	out := make([]ParamFlag, len(paramFlags))
	copy(out, paramFlags)
	return out
}

// Compile builds the ascp argv for a receive transfer. Fields ascp has no
// flag for are ignored. A spec that names any direction other than
// "receive", including an empty or null one, is refused.
func Compile(spec *TransferSpec, profile Profile) ([]string, error) {
	if spec == nil {
		return nil, utils.Wrap(utils.ErrProtocol, nil, "no transfer spec")
	}
	if spec.HasDirection() && spec.Direction != DirectionReceive {
		return nil, utils.Wrap(utils.ErrUnsupportedOperation, nil,
			"only ascp receives are supported, got direction %q", spec.Direction)
	}

	argv := []string{profile.Ascp, "-p", "-i", profile.KeyFile()}
	for _, pf := range paramFlags {
		if v, ok := spec.Params[pf.Param]; ok {
			argv = append(argv, pf.Flag.args(v)...)
		}
	}

	argv = append(argv, modeReceive)
	for _, p := range spec.Paths {
		argv = append(argv, p.Source)
	}

	root := spec.DestinationRoot
	if root == "" {
		root = currentDirectory
	}
	return append(argv, root), nil
}

// tokenFlag carries the transfer token; its value never leaves the process
// except as ascp's own argument.
const tokenFlag = "-W"

// MaskArgv returns a copy of argv with the token value replaced.
func MaskArgv(argv []string) []string {
	out := make([]string, len(argv))
	for i, a := range argv {
		if i > 0 && argv[i-1] == tokenFlag {
			a = "****"
		}
		out[i] = a
	}
	return out
}

// CommandLine renders argv for display. The token value is masked.
func CommandLine(argv []string) string {
	parts := MaskArgv(argv)
	for i, a := range parts {
		if strings.ContainsAny(a, " \t\"'") {
			parts[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
	}
	return strings.Join(parts, " ")
}
