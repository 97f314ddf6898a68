// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/connectomedb/cdb-cli-sdk/sdk/config"
	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

// Pull downloads a mirrored file or prefix. Objects under a prefix keep
// their layout relative to it.
func (s *MirrorService) Pull(ctx context.Context, req PullRequest) ([]FileInfo, error) {
	pp, err := utils.ParsePath(req.URL)
	if err != nil {
		return nil, err
	}
	if pp.Scheme != "s3" {
		return nil, fmt.Errorf("only s3 scheme is supported, got %q", pp.Scheme)
	}

	if !pp.IsDir() {
		target, err := chooseLocalTarget(req.Destination, pp.Filename)
		if err != nil {
			return nil, err
		}
		utils.Infof("Preparing download %s → %s", pp, utils.DisplayPath(target))
		var gp *utils.Progress
		if !req.Verbose {
			// size is learned from the response
			gp = utils.NewProgress("downloaded", 0)
		}
		if err := s.s3.DownloadObject(ctx, pp.Host, pp.Path, target, hookFor(req.Verbose, gp)); err != nil {
			return nil, fmt.Errorf("S3 download failed: %w", err)
		}
		if gp != nil {
			gp.Done()
		}
		return describe([]string{target}, filepath.Dir(target))
	}

	var total int64
	all, err := s.s3.ListObjects(ctx, pp.Host, pp.Path)
	if err != nil {
		utils.Warnf("Listing failed, proceeding without totals: %v", err)
	} else {
		if len(all) == 0 {
			return nil, errors.New("nothing to download under " + pp.String())
		}
		for _, o := range all {
			total += o.Size
		}
	}
	utils.Infof("Preparing download %s → %s (%d files, %s)", pp, utils.DisplayPath(req.Destination), len(all), utils.HumanBytes(total))

	gp := newProgress(req.Verbose, "downloaded", total)
	var locals []string
	idx := 0
	err = s.s3.WalkPrefix(ctx, pp.Host, pp.Path, 1000, func(obj config.MirrorObject) error {
		idx++
		target := filepath.Join(req.Destination, filepath.FromSlash(obj.Name))
		if req.Verbose {
			fmt.Fprintf(utils.LogOutput, "   [%d/%d] %s\n", idx, len(all), obj.Name)
		}
		if err := s.s3.DownloadObject(ctx, pp.Host, obj.Key, target, hookFor(req.Verbose, gp)); err != nil {
			return fmt.Errorf("failed to download %s: %w", obj.Key, err)
		}
		locals = append(locals, target)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if gp != nil {
		gp.Done()
	}
	base := req.Destination
	if base == "" {
		base = "."
	}
	return describe(locals, base)
}

// chooseLocalTarget:
// - dst empty → filename in the working directory
// - dst is an existing directory → dst/filename
// - dst is an existing file → dst (overwritten)
// - dst missing → create it as a directory and use dst/filename
func chooseLocalTarget(dst, filename string) (string, error) {
	if dst == "" {
		return filename, nil
	}
	info, err := os.Stat(dst)
	if err == nil {
		if info.IsDir() {
			return filepath.Join(dst, filename), nil
		}
		return dst, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dst, filename), nil
}

func describe(locals []string, base string) ([]FileInfo, error) {
	out := make([]FileInfo, 0, len(locals))
	for _, l := range locals {
		st, err := os.Stat(l)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(base, l)
		if err != nil {
			rel = l
		}
		out = append(out, FileInfo{
			Path: filepath.ToSlash(rel),
			Name: st.Name(),
			Size: st.Size(),
		})
	}
	return out, nil
}
