// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package config

import "time"

// Config is everything the SDK services need; no viper/INI in here.
type Config struct {
	Core   CoreConfig
	Aspera AsperaConfig
	S3     S3Config
}

type CoreConfig struct {
	BaseURL string
	// PathPrefix is prepended to every request path (e.g. "/spring").
	PathPrefix        string
	AccessToken       string
	SessionID         string
	// BasicAuthUsername is also the archive user reported to Aspera, so it
	// should be set with token or session auth too.
	BasicAuthUsername string
	BasicAuthPassword string
}

// AsperaConfig tunes how ascp is run. Binary locations are not here:
// they are resolved from the environment on every call.
type AsperaConfig struct {
	ClientName    string
	ClientVersion string
	InheritEnv    bool
	Timeout       time.Duration
}

type S3Config struct {
	AccessKey   string
	SecretKey   string
	AccessToken string
	Region      string
	EndpointURL string
	Bucket      string
}
