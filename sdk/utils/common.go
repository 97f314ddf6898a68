// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

/* ------------ logging helpers (stderr) ------------ */

// LogOutput receives [INFO]/[WARN] lines and progress; tests can swap it.
var LogOutput io.Writer = os.Stderr

func Infof(format string, a ...any) {
	fmt.Fprintf(LogOutput, "[INFO] "+format+"\n", a...)
}

func Warnf(format string, a ...any) {
	fmt.Fprintf(LogOutput, "[WARN] "+format+"\n", a...)
}

func warnf(format string, a ...any) { Warnf(format, a...) }

/* ------------ paths ------------ */

// ParsedPath is a storage URL split into scheme, host (bucket) and path.
type ParsedPath struct {
	Scheme   string
	Host     string
	Path     string
	Filename string
}

// ParsePath parses URLs such as s3://bucket/prefix/file.nii.gz.
func ParsePath(raw string) (*ParsedPath, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid path %q: scheme and host are required", raw)
	}
	p := strings.TrimPrefix(u.Path, "/")
	name := ""
	if p != "" && !strings.HasSuffix(p, "/") {
		name = p[strings.LastIndex(p, "/")+1:]
	}
	return &ParsedPath{Scheme: u.Scheme, Host: u.Host, Path: p, Filename: name}, nil
}

// IsDir reports whether the path names a prefix rather than one object.
func (p *ParsedPath) IsDir() bool {
	return p.Path == "" || strings.HasSuffix(p.Path, "/")
}

func (p *ParsedPath) String() string {
	return p.Scheme + "://" + p.Host + "/" + p.Path
}

// DisplayPath prints an empty local path as ".".
func DisplayPath(p string) string {
	if p == "" {
		return "."
	}
	return p
}

/* ------------ formatting ------------ */

func HumanBytes(n int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)
	switch {
	case n >= GB:
		return fmt.Sprintf("%.2f GB", float64(n)/float64(GB))
	case n >= MB:
		return fmt.Sprintf("%.2f MB", float64(n)/float64(MB))
	case n >= KB:
		return fmt.Sprintf("%.2f KB", float64(n)/float64(KB))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
