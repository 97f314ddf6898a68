// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package packages

import (
	"context"
	"net/http"

	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

// ForSubjects reports package availability for the named subjects. When
// packages are named, the archive returns file counts and sizes for those
// packages only. The document is returned as decoded.
func (s *PackagesService) ForSubjects(ctx context.Context, subjects, packages any) (map[string]any, error) {
	view := "view=packages"
	if p, ok := utils.Join(packages, utils.DefaultSeparator); ok && p != "" {
		view = "view=subjects"
	}
	var out map[string]any
	if err := s.doJSON(ctx, http.MethodPost, BuildRequest(subjects, packages, view), &out); err != nil {
		return nil, err
	}
	return out, nil
}
