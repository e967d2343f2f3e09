// Package validator provides composable validation rules. The app uses it
// to reject bad configuration at startup.
//
//	err := validator.Apply(
//		validator.ValidURL("API_BASE_URL", cfg.API.BaseURL, "http", "https"),
//		validator.MinNum("AUTH_MAX_IDENTITY_ATTEMPTS", cfg.Auth.MaxIdentityAttempts, 1),
//		validator.OneOfString("LOG_LEVEL", cfg.LogLevel, levels),
//	)
//
// Apply runs every rule and returns ValidationErrors listing each failure,
// or nil.
package validator
