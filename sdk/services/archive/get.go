// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/connectomedb/cdb-cli-sdk/sdk/services/packages"
	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

// GetSubject fetches one subject by accession id or label.
func (s *ArchiveService) GetSubject(ctx context.Context, req GetRequest) (*packages.Subject, error) {
	if req.Project == "" {
		return nil, errors.New("project not specified")
	}
	if req.ID == "" {
		return nil, errors.New("id not specified")
	}

	resource := fmt.Sprintf("projects/%s/subjects/%s", req.Project, req.ID)
	url := s.http.BuildDataURL(resource, map[string]string{"format": "json"})
	body, status, err := s.http.Do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, utils.Wrap(utils.ErrTransport, err, "get subject (status %d)", status)
	}

	// single items come back as {"items":[{"data_fields":{...}}]}
	var doc struct {
		Items []struct {
			DataFields struct {
				ID    string `json:"ID"`
				Label string `json:"label"`
			} `json:"data_fields"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, utils.Wrap(utils.ErrProtocol, err, "json parsing failed")
	}
	if len(doc.Items) == 0 {
		return nil, utils.Wrap(utils.ErrProtocol, nil, "subject %s not found in response", req.ID)
	}
	f := doc.Items[0].DataFields
	return &packages.Subject{ID: f.ID, Name: f.Label}, nil
}
