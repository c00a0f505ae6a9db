package config

const (
	defaultConfigPath         = "~/.config/cutify/config.toml"
	defaultAPIBaseURL         = "http://localhost:8000"
	defaultAPITimeoutSeconds  = 120
	defaultReadRetryAttempts  = 3
	defaultStateDir           = "~/.local/share/cutify"
	defaultLogDir             = "~/.local/share/cutify/logs"
	defaultAPIBind            = "127.0.0.1:7489"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
	defaultReconcile          = ReconcileAssociations
	defaultFailureHistory     = 50
	defaultJournalDays        = 14
	defaultNotifyTimeout      = 10
	defaultTracingServiceName = "cutify"
	defaultTracingSampleRatio = 1.0
)

// Reconciliation policies for confirmed optimistic operations.
const (
	ReconcileAssociations = "associations"
	ReconcileAlways       = "always"
	ReconcileNever        = "never"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:           defaultAPIBaseURL,
			TimeoutSeconds:    defaultAPITimeoutSeconds,
			ReadRetryAttempts: defaultReadRetryAttempts,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Workflow: Workflow{
			Reconcile:      defaultReconcile,
			FailureHistory: defaultFailureHistory,
			JournalDays:    defaultJournalDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Failures:       true,
			Generation:     true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Tracing: Tracing{
			ServiceName: defaultTracingServiceName,
			SampleRatio: defaultTracingSampleRatio,
		},
	}
}
