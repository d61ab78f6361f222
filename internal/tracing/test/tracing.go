// Package test provides a tracer that records nothing, for use in tests
package test

import (
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/tracing"
)

// Tracer returns a no-op tracer
func Tracer(log *logger.Logger) *tracing.Tracer {
	return tracing.Noop(log)
}
