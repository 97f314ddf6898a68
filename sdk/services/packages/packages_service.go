// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package packages

import (
	"context"

	"github.com/connectomedb/cdb-cli-sdk/sdk/aspera"
	"github.com/connectomedb/cdb-cli-sdk/sdk/config"
	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

type PackagesService struct {
	http     config.CoreHTTP
	resolver *aspera.Resolver
	executor *aspera.Executor
	cookie   aspera.Cookie
}

func NewPackagesService(_ context.Context, conf config.Config, getenv func(string) string) (*PackagesService, error) {
	if conf.Core.BaseURL == "" {
		return nil, utils.Wrap(utils.ErrConfiguration, nil, "invalid archive config: missing endpoint")
	}
	core := conf.Core
	if core.PathPrefix == "" {
		// "/" disables the prefix
		core.PathPrefix = config.DefaultPathPrefix
	}
	return NewPackagesServiceWithCore(config.NewHTTPCore(nil, core), conf, getenv)
}

// NewPackagesServiceWithCore uses httpc instead of building a client from
// conf.Core; the rest of conf still applies.
func NewPackagesServiceWithCore(httpc config.CoreHTTP, conf config.Config, getenv func(string) string) (*PackagesService, error) {
	resolver, err := aspera.NewResolver(getenv)
	if err != nil {
		return nil, err
	}
	version := conf.Aspera.ClientVersion
	if version == "" {
		version = utils.Version
	}
	return &PackagesService{
		http:     httpc,
		resolver: resolver,
		executor: &aspera.Executor{
			InheritEnv: conf.Aspera.InheritEnv,
			Timeout:    conf.Aspera.Timeout,
		},
		cookie: aspera.Cookie{
			User:          conf.Core.BasicAuthUsername,
			ClientName:    conf.Aspera.ClientName,
			ClientVersion: version,
		},
	}, nil
}
