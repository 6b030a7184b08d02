// Package plugin defines plugin interfaces.
package plugin

import (
	"context"
	"io"

	"firestige.xyz/framepeek/internal/core"
)

// Reporter renders decoded records for an external consumer.
type Reporter interface {
	Plugin
	Report(ctx context.Context, rec *core.OutputRecord) error
	Flush(ctx context.Context) error
}

// OutputSetter is implemented by reporters writing to a stream so callers
// can redirect them before Start.
type OutputSetter interface {
	SetOutput(w io.Writer)
}
