// Package entropy contains the individual entropy sources that feed the
// mixing engine. A Source produces an opaque chunk of bytes on demand; the
// engine concatenates chunks from all sources and never interprets them.
package entropy

import "context"

// Source is anything that can supply entropy bytes on demand.
type Source interface {

	// Name returns a stable identifier for this source, used in the
	// health report.
	Name() string

	// Collect samples the source once and returns its bytes. A failing
	// source returns an error and its contribution is skipped; it must
	// not block past its own timeout.
	Collect(ctx context.Context) ([]byte, error)
}
