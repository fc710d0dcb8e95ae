// Package observability reports server errors to Sentry when configured.
package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry initializes the Sentry client. An empty dsn disables reporting;
// the returned func flushes pending events and is always safe to call.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErr sends err to Sentry. A no-op when Sentry is not initialized.
func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}
