// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

// Package aspera turns archive transfer specs into ascp invocations.
package aspera

import (
	"os"
	"runtime"

	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

const (
	EnvConnectDir = "ASPERA_CONNECTDIR"
	EnvBinDir     = "ASPERA_BINDIR"
	EnvEtcDir     = "ASPERA_ETCDIR"
	EnvAscp       = "ASCP"

	KeyFileName = "asperaweb_id_dsa.openssh"
)

// Platform is an operating system family with a known Aspera Connect layout.
type Platform int

const (
	Linux Platform = iota + 1
	Darwin
)

func (p Platform) String() string {
	switch p {
	case Linux:
		return "linux"
	case Darwin:
		return "darwin"
	default:
		return "unknown"
	}
}

type layout struct {
	connect string // appended to $HOME
	bin     string // appended to the connect dir
	etc     string
}

var layouts = map[Platform]layout{
	Linux:  {connect: "/.aspera/connect", bin: "/bin", etc: "/etc"},
	Darwin: {connect: "/Applications/Aspera Connect.app", bin: "/Contents/Resources", etc: "/Contents/Resources"},
}

// ParsePlatform maps a GOOS value to a Platform.
func ParsePlatform(goos string) (Platform, error) {
	switch goos {
	case "linux":
		return Linux, nil
	case "darwin":
		return Darwin, nil
	}
	return 0, utils.Wrap(utils.ErrConfiguration, nil, "unsupported platform %q", goos)
}

func CurrentPlatform() (Platform, error) {
	return ParsePlatform(runtime.GOOS)
}

// Resolver locates the Aspera Connect installation. Nothing is cached:
// every accessor reads the environment again.
type Resolver struct {
	Platform Platform
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// NewResolver returns a Resolver for the running platform.
func NewResolver(getenv func(string) string) (*Resolver, error) {
	p, err := CurrentPlatform()
	if err != nil {
		return nil, err
	}
	return &Resolver{Platform: p, Getenv: getenv}, nil
}

func (r *Resolver) getenv(key string) string {
	if r.Getenv == nil {
		return os.Getenv(key)
	}
	return r.Getenv(key)
}

func (r *Resolver) layout() (layout, error) {
	l, ok := layouts[r.Platform]
	if !ok {
		return layout{}, utils.Wrap(utils.ErrConfiguration, nil, "no Aspera Connect layout for platform %s", r.Platform)
	}
	return l, nil
}

func (r *Resolver) ConnectDir() (string, error) {
	if v := r.getenv(EnvConnectDir); v != "" {
		return v, nil
	}
	l, err := r.layout()
	if err != nil {
		return "", err
	}
	home := r.getenv("HOME")
	if home == "" {
		return "", utils.Wrap(utils.ErrConfiguration, nil, "HOME is not set and %s is empty", EnvConnectDir)
	}
	return home + l.connect, nil
}

func (r *Resolver) BinDir() (string, error) {
	if v := r.getenv(EnvBinDir); v != "" {
		return v, nil
	}
	return r.underConnect(func(l layout) string { return l.bin })
}

func (r *Resolver) EtcDir() (string, error) {
	if v := r.getenv(EnvEtcDir); v != "" {
		return v, nil
	}
	return r.underConnect(func(l layout) string { return l.etc })
}

// Ascp is the full path of the ascp binary.
func (r *Resolver) Ascp() (string, error) {
	if v := r.getenv(EnvAscp); v != "" {
		return v, nil
	}
	bin, err := r.BinDir()
	if err != nil {
		return "", err
	}
	return bin + "/ascp", nil
}

func (r *Resolver) underConnect(suffix func(layout) string) (string, error) {
	l, err := r.layout()
	if err != nil {
		return "", err
	}
	connect, err := r.ConnectDir()
	if err != nil {
		return "", err
	}
	return connect + suffix(l), nil
}

// Profile is a resolved snapshot of the installation layout.
type Profile struct {
	Platform   Platform
	ConnectDir string
	BinDir     string
	EtcDir     string
	Ascp       string
}

// KeyFile is the SSH key ascp authenticates to the archive's Aspera server with.
func (p Profile) KeyFile() string {
	return p.EtcDir + "/" + KeyFileName
}

// Profile resolves all accessors at once.
func (r *Resolver) Profile() (Profile, error) {
	p := Profile{Platform: r.Platform}
	// not fatal on its own: the other overrides may not need it
	p.ConnectDir, _ = r.ConnectDir()
	var err error
	if p.BinDir, err = r.BinDir(); err != nil {
		return Profile{}, err
	}
	if p.EtcDir, err = r.EtcDir(); err != nil {
		return Profile{}, err
	}
	if p.Ascp, err = r.Ascp(); err != nil {
		return Profile{}, err
	}
	return p, nil
}
