package main

const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing repo, invalid config)
	ExitDataError   = 3 // Data error (malformed input, validation failure)

	// Fetch exit codes
	ExitFetchNotFound = 1 // Paper not found
	ExitFetchAuth     = 2 // Missing or invalid API key
	ExitFetchAPI      = 3 // API error (rate limit, network)
)
