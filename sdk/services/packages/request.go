// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package packages

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

const downloadPath = "/download"

// BuildRequest composes the download endpoint query. extra holds
// preformatted key=value pairs and is appended verbatim.
func BuildRequest(subjects, packages any, extra ...string) string {
	qps := []string{"subjects=" + utils.JoinOrEmpty(subjects, utils.DefaultSeparator)}
	if p, ok := utils.Join(packages, utils.DefaultSeparator); ok && p != "" {
		qps = append(qps, "package="+p)
	}
	qps = append(qps, extra...)
	return downloadPath + "?" + strings.Join(qps, "&")
}

// doRequest issues a download endpoint call and returns the raw body.
func (s *PackagesService) doRequest(ctx context.Context, method, request string) ([]byte, error) {
	url := s.http.BuildURL(request)
	body, status, err := s.http.Do(ctx, method, url, nil)
	if err != nil {
		return nil, utils.Wrap(utils.ErrTransport, err, "%s %s (status %d)", method, request, status)
	}
	return body, nil
}

func (s *PackagesService) doJSON(ctx context.Context, method, request string, out any) error {
	body, err := s.doRequest(ctx, method, request)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return utils.Wrap(utils.ErrProtocol, err, "invalid json from %s", request)
	}
	return nil
}
