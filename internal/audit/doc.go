// Package audit buffers authentication events and delivers them to a Sink.
//
// The engine decides which events exist and when they fire; this package only
// queues and delivers them. Sinks provided here write to a channel, to an
// io.Writer as JSON lines, or to a *slog.Logger.
package audit
