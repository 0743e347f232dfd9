package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	mongoConnectTimeout = 15 * time.Second
	userinfoTimeout     = 10 * time.Second
)
