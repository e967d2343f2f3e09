package apiclient

import "time"

type Config struct {
	BaseURL string        `env:"API_BASE_URL" envDefault:"http://127.0.0.1:8000/api"`
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
}
