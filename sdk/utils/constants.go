// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

// Version is reported to the Aspera server in the transfer cookie.
const Version = "0.4.1"

const (
	IniName            = ".cdb.ini"
	IniSource          = "ini_source"
	CurrentEnvironment = "current_environment"
	CdbName            = "cdb_name"
	CdbEndpoint        = "cdb_endpoint"
	CdbPathPrefix      = "cdb_path_prefix"
	CdbUser            = "cdb_user"
	CdbPassword        = "cdb_password"
	CdbAccessToken     = "cdb_access_token"
	CdbSessionID       = "cdb_session_id"
	AsperaConnectDir   = "aspera_connectdir"
	AsperaBinDir       = "aspera_bindir"
	AsperaEtcDir       = "aspera_etcdir"
	AsperaAscp         = "ascp"
	AsperaInheritEnv   = "aspera_inherit_env"
	AsperaTimeout      = "aspera_timeout"
	AwsAccessKeyID     = "aws_access_key_id"
	AwsSecretAccessKey = "aws_secret_access_key"
	AwsSessionToken    = "aws_session_token"
	AwsRegion          = "aws_region"
	AwsEndpointURL     = "aws_endpoint_url"
	S3Bucket           = "s3_bucket"
)
