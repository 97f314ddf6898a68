// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"net/http"

	"github.com/connectomedb/cdb-cli-sdk/sdk/services/packages"
	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

func (s *ArchiveService) ListProjects(ctx context.Context) ([]Project, error) {
	return list[Project](ctx, s, "projects", nil)
}

// ListSubjects returns the subjects of req.Project in archive order.
func (s *ArchiveService) ListSubjects(ctx context.Context, req ListRequest) ([]packages.Subject, error) {
	if req.Project == "" {
		return nil, errors.New("project is mandatory for subjects")
	}
	return list[packages.Subject](ctx, s, "projects/"+req.Project+"/subjects", req.Params)
}

func list[T any](ctx context.Context, s *ArchiveService, resource string, params map[string]string) ([]T, error) {
	q := map[string]string{"format": "json"}
	if params != nil {
		maps.Copy(q, params)
	}
	url := s.http.BuildDataURL(resource, q)
	body, status, err := s.http.Do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, utils.Wrap(utils.ErrTransport, err, "list %s (status %d)", resource, status)
	}

	var rs resultSet[T]
	if err := json.Unmarshal(body, &rs); err != nil {
		return nil, utils.Wrap(utils.ErrProtocol, err, "json parsing failed")
	}
	return rs.ResultSet.Result, nil
}
