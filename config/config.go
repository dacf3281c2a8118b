// Package config loads the mesh runtime's JSON configuration file and
// applies environment-variable substitution to its string fields, the way
// the wider codebase's own config package does for its own settings.
package config

import (
	"encoding/json"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/bfix/gospel/logger"
)

// PeerConfig is this host's own mesh identity.
type PeerConfig struct {
	Name string `json:"name"`
	Host string `json:"host"`
	Port uint16 `json:"port"`
}

// Environ holds name/value pairs available to ${VAR} substitution.
type Environ map[string]string

// Config is the aggregated mesh configuration.
type Config struct {
	Env                Environ    `json:"environ"`
	Peer               PeerConfig `json:"peer"`
	Seeds              []string   `json:"seeds"`               // "name@host:port" entries dialed at startup
	JoinCommand        string     `json:"join_command"`        // default command `mm join` spawns with no argument
	CallTimeoutSeconds int        `json:"call_timeout_seconds"`
}

// Cfg is the process-wide configuration, populated by Load or assigned by
// the caller (cmd/mm sets it to Default() when no config file is given).
// It is nil until one of those happens.
var Cfg *Config

// Default returns a Config with the runtime's built-in defaults: localhost,
// the well-known mesh port, the caller's shell, and a 30s call timeout.
func Default() *Config {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/zsh"
	}
	return &Config{
		Env:                Environ{},
		Peer:               PeerConfig{Name: "", Host: "127.0.0.1", Port: 50051},
		JoinCommand:        shell,
		CallTimeoutSeconds: 30,
	}
}

// Load parses the JSON configuration file at fileName, applies ${VAR}
// substitution using both the file's own "environ" block and the process
// environment, and assigns the result to Cfg.
func Load(fileName string) error {
	raw, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}
	cfg := Default()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return err
	}
	env := mergeEnviron(cfg.Env)
	applySubstitutions(cfg, env)
	Cfg = cfg
	return nil
}

func mergeEnviron(fileEnv Environ) map[string]string {
	merged := make(map[string]string, len(fileEnv))
	for k, v := range fileEnv {
		merged[k] = v
	}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			k := kv[:i]
			if _, exists := merged[k]; !exists {
				merged[k] = kv[i+1:]
			}
		}
	}
	return merged
}

var substitutionPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

func substString(s string, env map[string]string) string {
	matches := substitutionPattern.FindAllStringSubmatch(s, -1)
	for _, m := range matches {
		if len(m[1]) == 0 {
			continue
		}
		subst, ok := env[m[1]]
		if !ok {
			continue
		}
		s = strings.ReplaceAll(s, "${"+m[1]+"}", subst)
	}
	return s
}

// applySubstitutions walks x (a pointer to a struct) recursively and
// rewrites every string field via ${VAR} substitution against env.
func applySubstitutions(x any, env map[string]string) {
	var process func(v reflect.Value)
	process = func(v reflect.Value) {
		for i := 0; i < v.NumField(); i++ {
			fld := v.Field(i)
			if !fld.CanSet() {
				continue
			}
			switch fld.Kind() {
			case reflect.String:
				s := fld.String()
				for {
					next := substString(s, env)
					if next == s {
						break
					}
					logger.Printf(logger.DBG, "[config] %s -> %s", s, next)
					s = next
				}
				fld.SetString(s)
			case reflect.Struct:
				process(fld)
			case reflect.Slice:
				for j := 0; j < fld.Len(); j++ {
					elem := fld.Index(j)
					if elem.Kind() == reflect.String {
						elem.SetString(substString(elem.String(), env))
					}
				}
			}
		}
	}
	v := reflect.ValueOf(x)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() == reflect.Struct {
		process(v)
	}
}
