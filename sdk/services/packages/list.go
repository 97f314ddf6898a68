// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package packages

import (
	"context"
	"net/http"
)

// List enumerates the package types the archive offers.
func (s *PackagesService) List(ctx context.Context) ([]Package, error) {
	var resp struct {
		Packages []Package `json:"packages"`
	}
	if err := s.doJSON(ctx, http.MethodGet, downloadPath, &resp); err != nil {
		return nil, err
	}
	return resp.Packages, nil
}

// IDs returns the package ids in archive order.
func IDs(pkgs []Package) []string {
	ids := make([]string, len(pkgs))
	for i, p := range pkgs {
		ids[i] = p.ID
	}
	return ids
}
