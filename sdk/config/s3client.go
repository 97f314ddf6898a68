// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// multipartThreshold is the size above which uploads go through the
// manager's multipart uploader.
const multipartThreshold = 100 * 1024 * 1024

type S3Client struct {
	s3 *s3.Client
}

func NewS3Client(ctx context.Context, cfgCreds S3Config) (*S3Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfgCreds.AccessKey != "" {
		creds := aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfgCreds.AccessKey,
			cfgCreds.SecretKey,
			cfgCreds.AccessToken,
		))
		opts = append(opts, awsconfig.WithCredentialsProvider(creds))
	}
	if cfgCreds.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfgCreds.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Options := func(o *s3.Options) {
		if cfgCreds.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfgCreds.EndpointURL)
			// most S3-compatible stores (MinIO, Ceph) need path-style
			o.UsePathStyle = true
		}
	}

	return &S3Client{
		s3: s3.NewFromConfig(cfg, s3Options),
	}, nil
}

// MirrorObject describes one object stored under a mirror prefix.
type MirrorObject struct {
	Key          string
	Name         string // key relative to the listed prefix
	Size         int64
	LastModified time.Time
}

// ListObjects returns every object under prefix, following continuation
// tokens. Zero-byte "folder" placeholders are skipped.
func (c *S3Client) ListObjects(ctx context.Context, bucket, prefix string) ([]MirrorObject, error) {
	var out []MirrorObject
	err := c.WalkPrefix(ctx, bucket, prefix, 1000, func(obj MirrorObject) error {
		out = append(out, obj)
		return nil
	})
	return out, err
}

// WalkPrefix pages through prefix and calls fn for every object.
func (c *S3Client) WalkPrefix(
	ctx context.Context,
	bucket string,
	prefix string,
	pageSize int32,
	fn func(obj MirrorObject) error,
) error {
	var token *string

	for {
		resp, err := c.s3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			MaxKeys:           aws.Int32(pageSize),
			ContinuationToken: token,
		})
		if err != nil {
			return fmt.Errorf("list s3://%s/%s: %w", bucket, prefix, err)
		}

		for _, obj := range resp.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || (strings.HasSuffix(key, "/") && aws.ToInt64(obj.Size) == 0) {
				continue
			}
			mo := MirrorObject{
				Key:  key,
				Name: strings.TrimPrefix(key, prefix),
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				mo.LastModified = *obj.LastModified
			}
			if err := fn(mo); err != nil {
				return err
			}
		}

		if resp.NextContinuationToken == nil || *resp.NextContinuationToken == "" {
			return nil
		}
		token = resp.NextContinuationToken
	}
}

// ProgressHook receives per-object transfer events.
type ProgressHook struct {
	OnStart    func(key string, totalBytes int64)
	OnProgress func(key string, written, totalBytes int64)
	OnDone     func(key string, totalBytes int64, took time.Duration)
}

func (h *ProgressHook) start(key string, total int64) {
	if h != nil && h.OnStart != nil {
		h.OnStart(key, total)
	}
}

func (h *ProgressHook) done(key string, total int64, took time.Duration) {
	if h != nil && h.OnDone != nil {
		h.OnDone(key, total, took)
	}
}

type progressWriter struct {
	key        string
	total      int64
	written    int64
	lastEmit   time.Time
	interval   time.Duration
	onProgress func(key string, written, total int64)
}

func newProgressWriter(key string, total int64, hook *ProgressHook) *progressWriter {
	pw := &progressWriter{key: key, total: total, interval: 250 * time.Millisecond}
	if hook != nil {
		pw.onProgress = hook.OnProgress
	}
	return pw
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.written += int64(n)
	now := time.Now()
	if pw.onProgress != nil && (pw.written == pw.total || now.Sub(pw.lastEmit) >= pw.interval) {
		pw.onProgress(pw.key, pw.written, pw.total)
		pw.lastEmit = now
	}
	return n, nil
}

// DownloadObject writes bucket/key to localPath, creating parent
// directories as needed.
func (c *S3Client) DownloadObject(ctx context.Context, bucket, key, localPath string, hook *ProgressHook) error {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to get object s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	total := aws.ToInt64(out.ContentLength)
	hook.start(key, total)

	if dir := filepath.Dir(localPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create local directory: %w", err)
		}
	}
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer f.Close()

	start := time.Now()
	if _, err := io.Copy(f, io.TeeReader(out.Body, newProgressWriter(key, total, hook))); err != nil {
		return fmt.Errorf("failed to write to local file: %w", err)
	}
	hook.done(key, total, time.Since(start))
	return nil
}

// UploadObject stores a local file at bucket/key and returns the ETag (or
// multipart location) reported by the store.
func (c *S3Client) UploadObject(ctx context.Context, bucket, key string, file *os.File, hook *ProgressHook) (string, error) {
	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat error: %w", err)
	}
	size := info.Size()

	mime, err := detectContentType(file)
	if err != nil {
		return "", err
	}

	hook.start(key, size)
	start := time.Now()
	reader := io.TeeReader(file, newProgressWriter(key, size, hook))

	var ref string
	if size > multipartThreshold {
		out, err := manager.NewUploader(c.s3).Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			Body:        reader,
			ContentType: aws.String(mime),
		})
		if err != nil {
			return "", fmt.Errorf("multipart upload of %s: %w", key, err)
		}
		ref = out.Location
	} else {
		out, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(key),
			Body:          reader,
			ContentLength: aws.Int64(size),
			ContentType:   aws.String(mime),
		})
		if err != nil {
			return "", fmt.Errorf("upload of %s: %w", key, err)
		}
		ref = aws.ToString(out.ETag)
	}
	hook.done(key, size, time.Since(start))
	return ref, nil
}

func detectContentType(file *os.File) (string, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek error: %w", err)
	}
	header := make([]byte, 512)
	n, _ := file.Read(header)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind error: %w", err)
	}
	return http.DetectContentType(header[:n]), nil
}
