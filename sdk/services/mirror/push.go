// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/connectomedb/cdb-cli-sdk/sdk/config"
	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

// Push uploads a file or a directory tree to
// s3://<bucket>/<prefix>/<id>/... and returns where it landed.
func (s *MirrorService) Push(ctx context.Context, req PushRequest) (*PushResult, error) {
	if req.Input == "" {
		return nil, errors.New("missing required input file or directory")
	}
	bucket := req.Bucket
	if bucket == "" {
		bucket = s.bucket
	}
	if bucket == "" {
		return nil, utils.Wrap(utils.ErrConfiguration, nil, "no bucket given and s3_bucket is not configured")
	}

	st, err := os.Stat(req.Input)
	if err != nil {
		return nil, fmt.Errorf("cannot access input: %w", err)
	}

	base := path.Join(strings.Trim(req.Prefix, "/"), utils.UUIDv4NoDash())

	if !st.IsDir() {
		key := path.Join(base, st.Name())
		utils.Infof("Preparing upload %s → s3://%s/%s", req.Input, bucket, key)
		gp := newProgress(req.Verbose, "uploaded", st.Size())
		fi, err := s.uploadOne(ctx, bucket, key, req.Input, st.Name(), hookFor(req.Verbose, gp))
		if err != nil {
			return nil, err
		}
		if gp != nil {
			gp.Done()
		}
		return &PushResult{URL: fmt.Sprintf("s3://%s/%s", bucket, key), Files: []FileInfo{fi}}, nil
	}

	files, total, err := enumerate(req.Input)
	if err != nil {
		return nil, err
	}
	if req.Verbose {
		utils.Infof("Preparing upload directory %s → s3://%s/%s/ (%d files, %s)",
			req.Input, bucket, base, len(files), utils.HumanBytes(total))
	} else {
		utils.Infof("Preparing upload directory %s → s3://%s/%s/", req.Input, bucket, base)
	}

	gp := newProgress(req.Verbose, "uploaded", total)

	out := &PushResult{URL: fmt.Sprintf("s3://%s/%s/", bucket, base)}
	for i, rel := range files {
		key := path.Join(base, filepath.ToSlash(rel))
		if req.Verbose {
			fmt.Fprintf(utils.LogOutput, "   [%d/%d] %s → s3://%s/%s\n", i+1, len(files), rel, bucket, key)
		}
		fi, err := s.uploadOne(ctx, bucket, key, filepath.Join(req.Input, rel), filepath.ToSlash(rel), hookFor(req.Verbose, gp))
		if err != nil {
			return nil, err
		}
		out.Files = append(out.Files, fi)
	}
	if gp != nil {
		gp.Done()
	}
	return out, nil
}

func (s *MirrorService) uploadOne(ctx context.Context, bucket, key, localPath, relPath string, hook *config.ProgressHook) (FileInfo, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to open local file: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return FileInfo{}, fmt.Errorf("stat error on %s: %w", localPath, err)
	}
	etag, err := s.s3.UploadObject(ctx, bucket, key, f, hook)
	if err != nil {
		return FileInfo{}, fmt.Errorf("upload error (%s): %w", localPath, err)
	}
	return FileInfo{Path: relPath, Name: st.Name(), Size: st.Size(), ETag: etag}, nil
}

// enumerate lists regular files under root (relative paths, walk order)
// and their total size.
func enumerate(root string) ([]string, int64, error) {
	var files []string
	var total int64
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, rel)
		total += info.Size()
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to enumerate local directory: %w", err)
	}
	return files, total, nil
}

// newProgress returns the batch line, or nil in verbose mode where each
// object reports on its own.
func newProgress(verbose bool, verb string, total int64) *utils.Progress {
	if verbose {
		return nil
	}
	return utils.NewProgress(verb, total)
}

func hookFor(verbose bool, gp *utils.Progress) *config.ProgressHook {
	if verbose || gp == nil {
		return utils.VerboseHook("transferring")
	}
	return gp.Hook()
}
