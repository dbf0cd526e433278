// Package config собирает настройки из флагов, переменных окружения и файла .env.
// Переменные окружения имеют приоритет над флагами. Файл .env только дополняет
// окружение и не перезаписывает уже заданные переменные.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	FlagRunAddr     string
	FlagBackendURL  string
	FlagSiteURL     string
	FlagLogLevel    string
	FlagBodyField   string
	RequestTimeout  time.Duration
	RefreshInterval time.Duration
	NoticeTTL       time.Duration
	VisitorIdleTTL  time.Duration
	EnableHTTPS     bool
	SecretKey       string
	TrustedSubnet   string
)

const (
	DefaultRunAddr    = ":3000"
	DefaultBackendURL = "http://localhost:3001"
	DefaultSiteURL    = "http://localhost:3000"
	DefaultSecretKey  = "linkly-dev-secret"
)

// DotEnvPath - файл с переменными окружения. Его отсутствие не ошибка.
var DotEnvPath = ".env"

// ParseFlags разбирает аргументы командной строки процесса.
func ParseFlags() error {
	return Parse(flag.CommandLine, os.Args[1:])
}

// Parse регистрирует флаги в fs, разбирает args и применяет окружение.
func Parse(fs *flag.FlagSet, args []string) error {
	if err := loadDotEnv(); err != nil {
		return err
	}

	fs.StringVar(&FlagRunAddr, "a", DefaultRunAddr, "address and port to run server")
	fs.StringVar(&FlagBackendURL, "b", DefaultBackendURL, "backend service base URL")
	fs.StringVar(&FlagSiteURL, "o", DefaultSiteURL, "public origin used to build short links")
	fs.StringVar(&FlagLogLevel, "l", "info", "log level")
	fs.StringVar(&FlagBodyField, "body-field", "originalUrl", "request body field carrying the URL: url or originalUrl")
	fs.DurationVar(&RequestTimeout, "t", 10*time.Second, "backend request timeout")
	fs.DurationVar(&RefreshInterval, "r", 0, "list auto refresh interval, 0 disables")
	fs.DurationVar(&NoticeTTL, "n", 5*time.Second, "how long success and error panels stay visible")
	fs.DurationVar(&VisitorIdleTTL, "idle", 30*time.Minute, "drop visitor state after this idle period")
	fs.BoolVar(&EnableHTTPS, "s", false, "serve HTTPS with a self-signed certificate")
	fs.StringVar(&SecretKey, "k", DefaultSecretKey, "visitor token signing key")
	fs.StringVar(&TrustedSubnet, "ts", "", "CIDR allowed to reach /debug endpoints")

	if err := fs.Parse(args); err != nil {
		return err
	}
	return applyEnv()
}

// LoadEnv заполняет настройки значениями по умолчанию и окружением без разбора флагов.
// Используется консольным клиентом, у которого свои флаги.
func LoadEnv() error {
	return Parse(flag.NewFlagSet("env", flag.ContinueOnError), nil)
}

func loadDotEnv() error {
	err := godotenv.Load(DotEnvPath)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", DotEnvPath, err)
}

func applyEnv() error {
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		FlagRunAddr = v
	}

	if v := os.Getenv("BACKEND_URL"); v != "" {
		FlagBackendURL = v
	}

	if v := os.Getenv("SITE_URL"); v != "" {
		FlagSiteURL = v
	}
	if v := os.Getenv("NEXT_PUBLIC_SITE_URL"); v != "" {
		FlagSiteURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		FlagLogLevel = v
	}

	if v := os.Getenv("LINKLY_BODY_FIELD"); v != "" {
		FlagBodyField = v
	}

	if v := os.Getenv("SECRET_KEY"); v != "" {
		SecretKey = v
	}

	if v := os.Getenv("TRUSTED_SUBNET"); v != "" {
		TrustedSubnet = v
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"REQUEST_TIMEOUT", &RequestTimeout},
		{"REFRESH_INTERVAL", &RefreshInterval},
		{"NOTICE_TTL", &NoticeTTL},
		{"VISITOR_IDLE_TTL", &VisitorIdleTTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.env, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("ENABLE_HTTPS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ENABLE_HTTPS: %w", err)
		}
		EnableHTTPS = enabled
	}

	return nil
}
