package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig    ErrorCode = "invalid_configuration"
	ErrReadConfig       ErrorCode = "read_config_failed"
	ErrParseArgs        ErrorCode = "parse_args_failed"
	ErrInvalidInterval  ErrorCode = "invalid_interval"
	ErrInvalidTransport ErrorCode = "invalid_transport"
	ErrInvalidWorkload  ErrorCode = "invalid_workload"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Scheduling errors
	ErrSchedPriority ErrorCode = "sched_priority_failed"
	ErrSchedAffinity ErrorCode = "sched_affinity_failed"
	ErrSchedRusage   ErrorCode = "sched_rusage_failed"

	// Transport errors
	ErrTransportBind    ErrorCode = "transport_bind_failed"
	ErrTransportReceive ErrorCode = "transport_receive_failed"
	ErrTransportClosed  ErrorCode = "transport_closed"

	// Application errors
	ErrTaskFailed ErrorCode = "task_failed"

	// Operation errors
	ErrOperationFailed ErrorCode = "operation_failed"
	ErrTimeout         ErrorCode = "operation_timeout"

	// History errors
	ErrInitHistory   ErrorCode = "init_history_failed"
	ErrRecordHistory ErrorCode = "record_history_failed"
	ErrCloseHistory  ErrorCode = "close_history_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:         "Internal error occurred",
	ErrInvalidArgument:  "Invalid argument provided",
	ErrAlreadyRunning:   "Another instance is already running",
	ErrInvalidConfig:    "Invalid configuration",
	ErrReadConfig:       "Failed to read config file",
	ErrParseArgs:        "Failed to parse command line",
	ErrInvalidInterval:  "Invalid interval value",
	ErrInvalidTransport: "Invalid command transport",
	ErrInvalidWorkload:  "Invalid workload iteration count",
	ErrInvalidLogLevel:  "Invalid log level",
	ErrInitFailed:       "Initialization failed",
	ErrShutdownFailed:   "Shutdown failed",
	ErrSchedPriority:    "Failed to apply scheduling priority",
	ErrSchedAffinity:    "Failed to apply CPU affinity",
	ErrSchedRusage:      "Failed to read thread resource usage",
	ErrTransportBind:    "Failed to bind command transport",
	ErrTransportReceive: "Failed to receive command",
	ErrTransportClosed:  "Command transport closed",
	ErrTaskFailed:       "Task failed",
	ErrOperationFailed:  "Operation failed",
	ErrTimeout:          "Operation timed out",
	ErrInitHistory:      "Failed to initialize history",
	ErrRecordHistory:    "Failed to record history",
	ErrCloseHistory:     "Failed to close history",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
