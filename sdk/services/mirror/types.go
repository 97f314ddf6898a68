// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package mirror

type PushRequest struct {
	Input  string // local file or directory (required)
	Bucket string // defaults to the configured bucket
	// Prefix is the key prefix; a fresh id is appended so pushes never
	// overwrite each other.
	Prefix  string
	Verbose bool
}

type PushResult struct {
	URL   string     `json:"url"   yaml:"url"`
	Files []FileInfo `json:"files" yaml:"files"`
}

type PullRequest struct {
	URL         string // s3://bucket/key or s3://bucket/prefix/
	Destination string // local directory; "" means working directory
	Verbose     bool
}

type FileInfo struct {
	Path string `json:"path"           yaml:"path"`
	Name string `json:"name"           yaml:"name"`
	Size int64  `json:"size"           yaml:"size"`
	ETag string `json:"etag,omitempty" yaml:"etag,omitempty"`
}
