// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"bytes"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"

	"github.com/connectomedb/cdb-cli-sdk/sdk/config"
)

// Settings holds all logical keys. Tags:
// - vkey: Viper key
// - env: canonical env name (UPPER_SNAKE). If empty, derived from vkey
// - persist: "true" to write the key into the INI
// - default: optional default to set if key is unset
// - secret: "true" if sensitive (masked by DescribeSettings)
// - bind: "false" to NOT bind from env (defaults still apply)
type Settings struct {
	CdbName          string `vkey:"cdb_name"              env:"CDB_NAME"              persist:"true"`
	CdbEndpoint      string `vkey:"cdb_endpoint"          env:"CDB_ENDPOINT"          persist:"true"  default:"https://db.humanconnectome.org"`
	CdbPathPrefix    string `vkey:"cdb_path_prefix"       env:"CDB_PATH_PREFIX"       persist:"true"  default:"/spring"`
	CdbUser          string `vkey:"cdb_user"              env:"CDB_USER"              persist:"true"`
	CdbPassword      string `vkey:"cdb_password"          env:"CDB_PASSWORD"          persist:"true"  secret:"true"`
	CdbAccessToken   string `vkey:"cdb_access_token"      env:"CDB_ACCESS_TOKEN"      persist:"true"  secret:"true"`
	CdbSessionID     string `vkey:"cdb_session_id"        env:"CDB_SESSION_ID"        persist:"false" secret:"true"`
	AsperaConnectDir string `vkey:"aspera_connectdir"     env:"ASPERA_CONNECTDIR"     persist:"true"`
	AsperaBinDir     string `vkey:"aspera_bindir"         env:"ASPERA_BINDIR"         persist:"true"`
	AsperaEtcDir     string `vkey:"aspera_etcdir"         env:"ASPERA_ETCDIR"         persist:"true"`
	Ascp             string `vkey:"ascp"                  env:"ASCP"                  persist:"true"`
	AsperaInheritEnv string `vkey:"aspera_inherit_env"    env:"ASPERA_INHERIT_ENV"    persist:"true"  default:"false"`
	AsperaTimeout    string `vkey:"aspera_timeout"        env:"ASPERA_TIMEOUT"        persist:"true"`
	AwsAccessKeyID   string `vkey:"aws_access_key_id"     env:"AWS_ACCESS_KEY_ID"     persist:"true"  secret:"true"`
	AwsSecretKey     string `vkey:"aws_secret_access_key" env:"AWS_SECRET_ACCESS_KEY" persist:"true"  secret:"true"`
	AwsSessionToken  string `vkey:"aws_session_token"     env:"AWS_SESSION_TOKEN"     persist:"true"  secret:"true"`
	AwsRegion        string `vkey:"aws_region"            env:"AWS_REGION"            persist:"true"`
	AwsEndpointURL   string `vkey:"aws_endpoint_url"      env:"AWS_ENDPOINT_URL"      persist:"true"`
	S3Bucket         string `vkey:"s3_bucket"             env:"S3_BUCKET"             persist:"true"`
	IniSource        string `vkey:"ini_source"            env:"INI_SOURCE"            persist:"true"`
	CurrentEnv       string `vkey:"current_environment"   env:"CURRENT_ENVIRONMENT"   persist:"false" bind:"false"`
}

type settingField struct {
	vkey    string
	env     string
	persist bool
	def     string
	secret  bool
	bind    bool
}

func settingFields() []settingField {
	rt := reflect.TypeOf(Settings{})
	out := make([]settingField, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		key := f.Tag.Get("vkey")
		if key == "" {
			continue
		}
		env := f.Tag.Get("env")
		if env == "" {
			env = strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		}
		out = append(out, settingField{
			vkey:    key,
			env:     env,
			persist: f.Tag.Get("persist") == "true",
			def:     f.Tag.Get("default"),
			secret:  f.Tag.Get("secret") == "true",
			bind:    !strings.EqualFold(f.Tag.Get("bind"), "false"),
		})
	}
	return out
}

func getIniPath() string {
	if p := os.Getenv("CDB_INI"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return home + string(os.PathSeparator) + IniName
}

// resolveEnvName: --env > "default"
func resolveEnvName(optionalEnv ...string) string {
	if len(optionalEnv) > 0 && optionalEnv[0] != "" && strings.ToLower(optionalEnv[0]) != "null" {
		return optionalEnv[0]
	}
	return "default"
}

// BindEnvFromStruct binds every Settings field to its env variable and
// applies defaults.
func BindEnvFromStruct() {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for _, f := range settingFields() {
		if f.bind {
			_ = viper.BindEnv(f.vkey, f.env)
		}
		if f.def != "" && !viper.IsSet(f.vkey) {
			viper.SetDefault(f.vkey, f.def)
		}
	}
}

// EnvLookup resolves an environment variable name through viper, so a
// value from the INI file counts as if it were exported. Env-bound keys are
// re-read from the process environment on every call.
func EnvLookup(name string) string {
	for _, f := range settingFields() {
		if f.env == name {
			if v := viper.GetString(f.vkey); v != "" {
				return v
			}
			break
		}
	}
	return os.Getenv(name)
}

func writeSection(sec *ini.Section) {
	for _, f := range settingFields() {
		if !f.persist {
			continue
		}
		val := viper.GetString(f.vkey)
		if val == "" {
			continue
		}
		sec.Key(f.vkey).SetValue(val)
	}
}

// WriteIniFromStruct writes a new INI with only persist:"true" keys.
func WriteIniFromStruct(iniPath, envName string) error {
	cfg := ini.Empty()
	cfg.Section("DEFAULT").Key(CurrentEnvironment).SetValue(envName)
	writeSection(cfg.Section(envName))
	return cfg.SaveTo(iniPath)
}

// UpdateIniFromStruct updates (or creates) the envName section from the
// current viper values.
func UpdateIniFromStruct(iniPath, envName string) error {
	cfg, err := ini.Load(iniPath)
	if err != nil {
		return WriteIniFromStruct(iniPath, envName)
	}
	writeSection(cfg.Section(envName))
	if !cfg.Section("DEFAULT").HasKey(CurrentEnvironment) {
		cfg.Section("DEFAULT").Key(CurrentEnvironment).SetValue(envName)
	}
	return cfg.SaveTo(iniPath)
}

// loadIniSectionIntoViper merges [DEFAULT] and [env] and feeds them to viper
// as TOML. Env variables still win on Get().
func loadIniSectionIntoViper(cfg *ini.File, env string) error {
	def := cfg.Section("DEFAULT")
	selected := def
	if env != "" && cfg.HasSection(env) {
		selected = cfg.Section(env)
	} else if env != "" && !strings.EqualFold(env, "DEFAULT") && env != "default" {
		warnf("Environment [%s] not found in %s, falling back to [DEFAULT]", env, getIniPath())
	}

	merged := make(map[string]string)
	for _, k := range def.Keys() {
		merged[k.Name()] = k.Value()
	}
	if selected != def {
		for _, k := range selected.Keys() {
			merged[k.Name()] = k.Value()
		}
	}

	var buf bytes.Buffer
	for k, v := range merged {
		vSafe := strings.ReplaceAll(strings.ReplaceAll(v, `\`, `\\`), `"`, `\"`)
		_, _ = fmt.Fprintf(&buf, "%s = \"%s\"\n", k, vSafe)
	}
	viper.SetConfigType("toml")
	return viper.ReadConfig(&buf)
}

// RegisterIniCfgWithViper:
// 1) bind ENV from struct (live)
// 2) load the INI if present; otherwise run from env only
// 3) load the active section into viper and set current_environment
func RegisterIniCfgWithViper(optionalEnv ...string) error {
	BindEnvFromStruct()

	iniPath := getIniPath()
	cfg, err := ini.Load(iniPath)
	if err != nil {
		viper.Set(IniSource, "env")
		viper.Set(CurrentEnvironment, resolveEnvName(optionalEnv...))
		return nil
	}

	// active env: --env > DEFAULT.current_environment > default
	env := resolveEnvName(optionalEnv...)
	if env == "default" {
		if v := cfg.Section("DEFAULT").Key(CurrentEnvironment).String(); v != "" {
			env = v
		}
	}

	if err := loadIniSectionIntoViper(cfg, env); err != nil {
		return Wrap(ErrConfiguration, err, "failed to load %s", iniPath)
	}
	viper.Set(CurrentEnvironment, env)
	return nil
}

// SetSetting assigns a known key in the running config, e.g. before
// SaveCurrentEnvironment. Unknown keys are a configuration error.
func SetSetting(key, value string) error {
	for _, f := range settingFields() {
		if f.vkey == key {
			viper.Set(key, value)
			return nil
		}
	}
	return Wrap(ErrConfiguration, nil, "unknown setting %q", key)
}

// SaveCurrentEnvironment persists the current viper state into the INI.
func SaveCurrentEnvironment() (string, error) {
	env := viper.GetString(CurrentEnvironment)
	if env == "" {
		env = resolveEnvName()
	}
	if err := UpdateIniFromStruct(getIniPath(), env); err != nil {
		return "", Wrap(ErrConfiguration, err, "failed to save ini")
	}
	return getIniPath(), nil
}

// LoadSDKConfig maps the viper state onto the plain SDK config.
func LoadSDKConfig() (config.Config, error) {
	var timeout time.Duration
	if raw := viper.GetString(AsperaTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return config.Config{}, Wrap(ErrConfiguration, err, "invalid %s %q", AsperaTimeout, raw)
		}
		timeout = d
	}
	return config.Config{
		Core: config.CoreConfig{
			BaseURL:           viper.GetString(CdbEndpoint),
			PathPrefix:        viper.GetString(CdbPathPrefix),
			AccessToken:       viper.GetString(CdbAccessToken),
			SessionID:         viper.GetString(CdbSessionID),
			BasicAuthUsername: viper.GetString(CdbUser),
			BasicAuthPassword: viper.GetString(CdbPassword),
		},
		Aspera: config.AsperaConfig{
			ClientVersion: Version,
			InheritEnv:    viper.GetBool(AsperaInheritEnv),
			Timeout:       timeout,
		},
		S3: config.S3Config{
			AccessKey:   viper.GetString(AwsAccessKeyID),
			SecretKey:   viper.GetString(AwsSecretAccessKey),
			AccessToken: viper.GetString(AwsSessionToken),
			Region:      viper.GetString(AwsRegion),
			EndpointURL: viper.GetString(AwsEndpointURL),
			Bucket:      viper.GetString(S3Bucket),
		},
	}, nil
}

// DescribeSettings lists the effective settings, secrets masked.
func DescribeSettings() map[string]string {
	out := map[string]string{}
	for _, f := range settingFields() {
		v := viper.GetString(f.vkey)
		if v == "" {
			continue
		}
		if f.secret {
			v = "****"
		}
		out[f.vkey] = v
	}
	return out
}
