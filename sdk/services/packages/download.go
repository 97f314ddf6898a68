// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package packages

import (
	"context"
	"net/http"

	"github.com/connectomedb/cdb-cli-sdk/sdk/aspera"
	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

// GetTransferSpec asks the archive for an Aspera transfer spec covering
// the given packages of the given subjects. A non-empty destination is
// where ascp should put the files; otherwise the working directory is used.
func (s *PackagesService) GetTransferSpec(ctx context.Context, subjects, packages any, destination string) (*aspera.TransferSpec, error) {
	var extra []string
	if destination != "" {
		extra = append(extra, "destination="+destination)
	}
	body, err := s.doRequest(ctx, http.MethodPost, BuildRequest(subjects, packages, extra...))
	if err != nil {
		return nil, err
	}
	spec, err := aspera.DecodeTransferSpec(body)
	if err != nil {
		return nil, utils.Wrap(utils.ErrProtocol, err, "invalid transfer spec")
	}
	if err := spec.Validate(); err != nil {
		return nil, utils.Wrap(utils.ErrProtocol, err, "invalid transfer spec")
	}
	return spec, nil
}

// Plan fetches the transfer spec and compiles the ascp command without
// running it.
func (s *PackagesService) Plan(ctx context.Context, req DownloadRequest) (*aspera.TransferSpec, []string, error) {
	spec, err := s.GetTransferSpec(ctx, req.Subjects, req.Packages, req.Destination)
	if err != nil {
		return nil, nil, err
	}
	argv, err := s.Compile(spec)
	if err != nil {
		return spec, nil, err
	}
	return spec, argv, nil
}

// Compile resolves the local Aspera Connect layout and builds the argv.
func (s *PackagesService) Compile(spec *aspera.TransferSpec) ([]string, error) {
	profile, err := s.resolver.Profile()
	if err != nil {
		return nil, err
	}
	return aspera.Compile(spec, profile)
}

// Download runs the whole chain: fetch spec, compile, run ascp.
// It blocks until ascp exits; ctx cancels it.
func (s *PackagesService) Download(ctx context.Context, req DownloadRequest) (*DownloadResult, error) {
	spec, argv, err := s.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Apply(ctx, spec, argv)
}

// Apply runs a compiled command for spec. The result's command has the
// token masked.
func (s *PackagesService) Apply(ctx context.Context, spec *aspera.TransferSpec, argv []string) (*DownloadResult, error) {
	if s.cookie.User == "" {
		utils.Warnf("No archive user configured (%s): the Aspera cookie carries an empty XDATUser", utils.CdbUser)
	}
	out, err := s.executor.Run(ctx, argv, s.cookie)
	if err != nil {
		return nil, err
	}
	return &DownloadResult{
		Command: aspera.MaskArgv(argv),
		Files:   len(spec.Paths),
		Output:  string(out),
	}, nil
}
