// Package config loads sockget settings from defaults, an optional TOML file and the environment.
package config

import (
	"crypto/tls"
	"log/slog"
	"strings"
	"time"

	"sockethttp/application/http"
	"sockethttp/application/http/actor/client"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	Log    Log    `koanf:"log"`
	Client Client `koanf:"client"`
	TLS    TLS    `koanf:"tls"`
}

type Log struct {
	Level string `koanf:"level"`
}

type Client struct {
	KeepAlive        bool `koanf:"keep_alive"`
	MaxRedirects     uint `koanf:"max_redirects"`
	DisableRedirects bool `koanf:"disable_redirects"`

	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	AllowSoleLF         bool `koanf:"allow_sole_lf"`
	MaxStatusLineLength uint `koanf:"max_status_line_length"`
	MaxFieldLineLength  uint `koanf:"max_field_line_length"`
}

type TLS struct {
	InsecureSkipVerify bool   `koanf:"insecure_skip_verify"`
	ServerName         string `koanf:"server_name"`
}

func Default() Config {
	opts := client.DefaultOptions()
	return Config{
		Log: Log{Level: "info"},
		Client: Client{
			KeepAlive:    opts.KeepAlive,
			MaxRedirects: opts.Redirect.Max,
			AllowSoleLF:  opts.Decode.AllowSoleLF,
		},
	}
}

// Load layers path (skipped when empty) and then environment variables over [Default].
// Variables are named PREFIX_SECTION__KEY, e.g. SOCKGET_CLIENT__READ_TIMEOUT=5s.
func Load(path, envPrefix string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, errors.Wrap(err, "loading defaults")
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, "loading %s", path)
		}
	}

	prefix := envPrefix
	if prefix != "" {
		prefix += "_"
	}
	// replace __ with . so field a in section b is referenced as b__a.
	cb := func(source string) string {
		key := strings.ToLower(strings.TrimPrefix(source, prefix))
		return strings.ReplaceAll(key, "__", ".")
	}
	if err := k.Load(env.Provider(prefix, ".", cb), nil); err != nil {
		return Config{}, errors.Wrap(err, "loading environment variables")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "unmarshalling config")
	}

	return cfg, nil
}

func (c Config) ClientOptions() client.Options {
	return client.Options{
		KeepAlive: c.Client.KeepAlive,
		Redirect: client.RedirectOptions{
			Disable: c.Client.DisableRedirects,
			Max:     c.Client.MaxRedirects,
		},
		Timeout: client.TimeoutOptions{
			Dial:  c.Client.DialTimeout,
			Read:  c.Client.ReadTimeout,
			Write: c.Client.WriteTimeout,
		},
		Encode: http.DefaultEncodeOptions,
		Decode: http.DecodeOptions{
			AllowSoleLF:         c.Client.AllowSoleLF,
			MaxStatusLineLength: c.Client.MaxStatusLineLength,
			MaxFieldLineLength:  c.Client.MaxFieldLineLength,
		},
	}
}

func (c Config) TLSConfig() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: c.TLS.InsecureSkipVerify,
		ServerName:         c.TLS.ServerName,
	}
}

func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.Wrapf(err, "log level %q", c.Log.Level)
	}
	return level, nil
}
