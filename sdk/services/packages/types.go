// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package packages

// Subject is an archive subject; it can be passed anywhere an identifier
// set is expected.
type Subject struct {
	ID   string `json:"id"`
	Name string `json:"label,omitempty"`
}

func (s Subject) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Package is a download package type (e.g. "3T_Structural_preproc").
type Package struct {
	ID          string `json:"id"                    yaml:"id"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

func (p Package) Label() string { return p.ID }

// Subjects and Packages accept any identifier set understood by utils.Join:
// a string, []string, or a slice of labeled values.
type DownloadRequest struct {
	Subjects    any
	Packages    any
	Destination string
}

type DownloadResult struct {
	Command []string `json:"command" yaml:"command"`
	Files   int      `json:"files"   yaml:"files"`
	Output  string   `json:"output,omitempty" yaml:"output,omitempty"`
}
