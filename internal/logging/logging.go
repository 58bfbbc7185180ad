// Package logging provides the shared silent logger used as the default
// across the module.
package logging

import (
	"context"
	"log/slog"
)

// DiscardHandler is a slog.Handler that silently drops all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type DiscardHandler struct{}

func (DiscardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (DiscardHandler) Handle(context.Context, slog.Record) error { return nil }
func (DiscardHandler) WithAttrs([]slog.Attr) slog.Handler        { return DiscardHandler{} }
func (DiscardHandler) WithGroup(string) slog.Handler             { return DiscardHandler{} }

// Nop creates a logger that silently discards all output.
func Nop() *slog.Logger { return slog.New(DiscardHandler{}) }
