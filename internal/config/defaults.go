package config

const (
	defaultDataDir    = "~/.local/share/locaudit"
	defaultLogDir     = "~/.local/share/locaudit/logs"
	defaultSocketPath = "~/.local/share/locaudit/locauditd.sock"

	defaultFetchTimeoutSeconds = 30
	defaultFetchMaxAttempts    = 3
	defaultFetchBackoffSeconds = 2
	defaultFetchUserAgent      = "locaudit/0.1 (+https://github.com/locaudit/locaudit)"
	defaultFetchMaxBodyBytes   = 4 << 20

	defaultSnapshotTimeoutSeconds = 60

	defaultJudgeBaseURL              = "https://openrouter.ai/api/v1/chat/completions"
	defaultJudgeModel                = "anthropic/claude-sonnet-4"
	defaultJudgeTimeoutSeconds       = 120
	defaultJudgeInputCostPerMillion  = 3.0
	defaultJudgeOutputCostPerMillion = 15.0

	defaultQueuePollInterval  = 2
	defaultErrorRetryInterval = 5

	defaultNotifyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			SocketPath: defaultSocketPath,
		},
		Fetch: Fetch{
			TimeoutSeconds: defaultFetchTimeoutSeconds,
			MaxAttempts:    defaultFetchMaxAttempts,
			BackoffSeconds: defaultFetchBackoffSeconds,
			UserAgent:      defaultFetchUserAgent,
			MaxBodyBytes:   defaultFetchMaxBodyBytes,
		},
		Snapshot: Snapshot{
			TimeoutSeconds: defaultSnapshotTimeoutSeconds,
		},
		Judge: Judge{
			BaseURL:              defaultJudgeBaseURL,
			Model:                defaultJudgeModel,
			TimeoutSeconds:       defaultJudgeTimeoutSeconds,
			InputCostPerMillion:  defaultJudgeInputCostPerMillion,
			OutputCostPerMillion: defaultJudgeOutputCostPerMillion,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Completed:      true,
			Blocked:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
