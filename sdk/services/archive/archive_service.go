// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

// Package archive reads projects and subjects from the archive REST API,
// mostly to feed identifier sets into package downloads.
package archive

import (
	"context"

	"github.com/connectomedb/cdb-cli-sdk/sdk/config"
	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

type ArchiveService struct {
	http config.CoreHTTP
}

func NewArchiveService(_ context.Context, conf config.Config) (*ArchiveService, error) {
	if conf.Core.BaseURL == "" {
		return nil, utils.Wrap(utils.ErrConfiguration, nil, "invalid archive config: missing endpoint")
	}
	return NewArchiveServiceWithCore(config.NewHTTPCore(nil, conf.Core)), nil
}

// NewArchiveServiceWithCore wraps an existing archive client.
func NewArchiveServiceWithCore(httpc config.CoreHTTP) *ArchiveService {
	return &ArchiveService{http: httpc}
}
