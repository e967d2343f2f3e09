// Package config loads environment-driven configuration into tagged structs.
//
// A .env file in the working directory is loaded once (missing files are
// fine), then caarlos0/env parses the process environment into the target:
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil { ... }
package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrParsingConfig is returned when the environment cannot be parsed into the target.
	ErrParsingConfig = errors.New("config: failed to parse environment")

	// ErrNilPointer is returned when Load receives a nil target.
	ErrNilPointer = errors.New("config: nil target")

	// ErrDotenv is returned when an explicitly requested dotenv file cannot be read.
	ErrDotenv = errors.New("config: failed to load dotenv file")
)

var dotenvOnce sync.Once

// Load parses the environment into v after loading ./.env once per process.
func Load[T any](v *T) error {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})
	return parse(v)
}

// LoadFiles loads the given dotenv files (without overriding variables that
// are already set) and parses the environment into v.
func LoadFiles[T any](v *T, files ...string) error {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return errors.Join(ErrDotenv, err)
		}
	}
	return parse(v)
}

// MustLoad is Load that panics on error. Use it for configuration the
// process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

func parse[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}
