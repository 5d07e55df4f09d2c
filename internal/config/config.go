package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const (
	SourceFile = "file"
	SourceHTTP = "http"
)

type Application struct {
	Server    Server   `koanf:"server"`
	Data      Data     `koanf:"data"`
	Frontend  Frontend `koanf:"frontend"`
	StartDate string   `koanf:"startdate"`
}

type Frontend struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
}

type Server struct {
	Addr string `koanf:"addr"`
}

type Data struct {
	// Source selects where partitions are read from: "file" or "http".
	Source  string `koanf:"source"`
	Dir     string `koanf:"dir"`
	BaseURL string `koanf:"baseurl"`
	Root    string `koanf:"root"`
	// Timeout of a single HTTP fetch, in seconds.
	Timeout int `koanf:"timeout"`
}

func (d Data) FetchTimeout() time.Duration {
	return time.Duration(d.Timeout) * time.Second
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Server: Server{
			Addr: ":8181",
		},
		Data: Data{
			Source:  SourceFile,
			Dir:     "./public",
			Root:    "data",
			Timeout: 10,
		},
		Frontend: Frontend{
			Enabled: false,
			Dir:     "./public",
		},
		StartDate: "2025-01-01",
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "DAYBOOK_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "DAYBOOK_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}
	if err := app.validate(); err != nil {
		return Application{}, err
	}
	return app, nil
}

func (a Application) validate() error {
	switch a.Data.Source {
	case SourceFile:
		if a.Data.Dir == "" {
			return fmt.Errorf("data.dir is required for source %q", SourceFile)
		}
	case SourceHTTP:
		if a.Data.BaseURL == "" {
			return fmt.Errorf("data.baseurl is required for source %q", SourceHTTP)
		}
	default:
		return fmt.Errorf("unknown data.source %q, expected %q or %q", a.Data.Source, SourceFile, SourceHTTP)
	}
	if a.Data.Timeout <= 0 {
		return fmt.Errorf("data.timeout must be positive, got %d", a.Data.Timeout)
	}
	return nil
}
