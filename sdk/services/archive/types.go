// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package archive

type Project struct {
	ID   string `json:"id"             yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

func (p Project) Label() string { return p.ID }

type ListRequest struct {
	Project string // required for subjects
	// Params are passed through as query parameters (e.g. columns).
	Params map[string]string
}

type GetRequest struct {
	Project string
	// ID is either the accession id or the label.
	ID string
}

// resultSet is the envelope of /data list responses.
type resultSet[T any] struct {
	ResultSet struct {
		Result       []T    `json:"Result"`
		TotalRecords string `json:"totalRecords"`
	} `json:"ResultSet"`
}
