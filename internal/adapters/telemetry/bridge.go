// Package telemetry adapts OpenTelemetry spans to the application's tracer port
// and reports finished spans to the log.
package telemetry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/redirector/internal/core/ports"
)

// Bridge implements sdktrace.SpanProcessor and writes span lifecycle events to a Logger.
type Bridge struct {
	logger ports.Logger
}

// NewBridge returns a new Bridge.
func NewBridge(logger ports.Logger) *Bridge {
	return &Bridge{
		logger: logger,
	}
}

// OnStart is called when a span starts.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	if b.logger == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	msg := "span started: " + s.Name()
	if parentSpan := trace.SpanFromContext(parent); parentSpan.SpanContext().IsValid() {
		msg += " parent=" + parentSpan.SpanContext().SpanID().String()
	}
	b.logger.Debug(msg)
}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	line := FormatSpan(s.Name(), s.EndTime().Sub(s.StartTime()), s.Attributes())
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "failed"
		}
		b.logger.Warn(line + " error=" + desc)
		return
	}
	b.logger.Info(line)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}

// FormatSpan renders a finished span as a single log line with sorted attributes.
func FormatSpan(name string, d time.Duration, attrs []attribute.KeyValue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s finished in %s", name, d.Round(time.Millisecond))

	sorted := make([]attribute.KeyValue, len(attrs))
	copy(sorted, attrs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	for _, kv := range sorted {
		fmt.Fprintf(&b, " %s=%s", kv.Key, kv.Value.Emit())
	}
	return b.String()
}
