// Package logger provides structured logging attribute helpers built on Go's
// standard slog package. Helpers cover the identifiers and measurements that
// show up throughout event delivery: users, connections, threads, attempts,
// and failure reasons.
//
// All helpers are nil-safe: passing a nil error or empty identifier yields an
// empty Attr that slog drops, so call sites never need guards.
//
// Basic usage:
//
//	import "github.com/chatwire/realtime/core/logger"
//
//	log.Info("message delivered",
//		logger.UserID(userID),
//		logger.ConnectionID(connID),
//		logger.Attempt(2),
//		logger.Elapsed(start),
//	)
//
//	log.Error("delivery failed",
//		logger.Error(err),
//		logger.UserID(userID),
//		logger.Reason("send_timeout"),
//		logger.RetryCount(3),
//	)
package logger
