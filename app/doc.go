// Package app is the composition root. It loads configuration, builds every
// component once and wires them into the HTTP router:
//
//	var cfg app.Config
//	config.MustLoad(&cfg)
//	a, err := app.New(ctx, cfg)
//	...
//	defer a.Close()
//	err = a.Run(ctx)
//
// Redis is optional. With REDIS_URL unset, sessions, notices and the login
// limiter live in process memory.
package app
