package logger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ramaorbit/orbit-engine/pkg/logger/slogx"
)

// middlewareError expands error attributes with their verbose
// (stack-carrying) representation so wrapped errors stay debuggable
// in production logs.
func middlewareError() middleware {
	return func(next handleFunc) handleFunc {
		return func(ctx context.Context, rec slog.Record) error {
			rec.Attrs(func(attr slog.Attr) bool {
				if attr.Key == slogx.ErrorKey || attr.Key == "err" {
					if err, ok := attr.Value.Any().(error); ok && err != nil {
						rec.AddAttrs(slog.String("error_verbose", fmt.Sprintf("%+v", err)))
					}
				}
				return true
			})

			return next(ctx, rec)
		}
	}
}
