// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

// Package mirror copies downloaded packages to and from S3-compatible
// storage, so a site can fetch from the archive once and stage the data
// for its compute nodes.
package mirror

import (
	"context"
	"fmt"
	"os"

	"github.com/connectomedb/cdb-cli-sdk/sdk/config"
)

// objectStore is the part of *config.S3Client the mirror uses.
type objectStore interface {
	WalkPrefix(ctx context.Context, bucket, prefix string, pageSize int32, fn func(obj config.MirrorObject) error) error
	ListObjects(ctx context.Context, bucket, prefix string) ([]config.MirrorObject, error)
	DownloadObject(ctx context.Context, bucket, key, localPath string, hook *config.ProgressHook) error
	UploadObject(ctx context.Context, bucket, key string, file *os.File, hook *config.ProgressHook) (string, error)
}

type MirrorService struct {
	s3     objectStore
	bucket string
}

func NewMirrorService(ctx context.Context, conf config.Config) (*MirrorService, error) {
	s3c, err := config.NewS3Client(ctx, conf.S3)
	if err != nil {
		return nil, fmt.Errorf("S3 init failed: %w", err)
	}
	return &MirrorService{s3: s3c, bucket: conf.S3.Bucket}, nil
}
