// Package observability builds the gateway's zap logger.
package observability
