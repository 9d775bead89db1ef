// File: logging/logging.go
// Package logging wraps a structured-logging backend behind a narrow
// Sink interface, the way DrBlury-protoflow's internal/runtime/logging
// wraps its backend, but backed by go.uber.org/zap here since zap is
// the structured logger the wider example pack actually depends on.
// License: Apache-2.0

package logging

import "go.uber.org/zap"

// Field is a structured key/value pair attached to a log line.
type Field = zap.Field

func String(key, value string) Field   { return zap.String(key, value) }
func Int(key string, value int) Field  { return zap.Int(key, value) }
func Uint32(key string, value uint32) Field { return zap.Uint32(key, value) }
func Uint64(key string, value uint64) Field { return zap.Uint64(key, value) }
func Err(err error) Field              { return zap.Error(err) }
func Duration(key string, ns int64) Field   { return zap.Int64(key, ns) }

// Sink is the narrow structured-logging surface every package in this
// module depends on, so callers never import zap directly.
type Sink interface {
	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warning(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	With(fields ...Field) Sink
	Sync() error
}

type zapSink struct {
	logger *zap.Logger
}

// NewProduction returns a Sink backed by zap's production configuration
// (JSON encoding, Info level and above).
func NewProduction() (Sink, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &zapSink{logger: logger}, nil
}

// NewDevelopment returns a Sink backed by zap's development
// configuration (console encoding, Debug level and above, stack traces
// on Warning+).
func NewDevelopment() (Sink, error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return &zapSink{logger: logger}, nil
}

// Trace has no direct zap equivalent; it is mapped to Debug since zap's
// level set bottoms out there.
func (s *zapSink) Trace(msg string, fields ...Field)   { s.logger.Debug(msg, fields...) }
func (s *zapSink) Debug(msg string, fields ...Field)   { s.logger.Debug(msg, fields...) }
func (s *zapSink) Info(msg string, fields ...Field)    { s.logger.Info(msg, fields...) }
func (s *zapSink) Warning(msg string, fields ...Field) { s.logger.Warn(msg, fields...) }
func (s *zapSink) Error(msg string, fields ...Field)   { s.logger.Error(msg, fields...) }
func (s *zapSink) Fatal(msg string, fields ...Field)   { s.logger.Fatal(msg, fields...) }

func (s *zapSink) With(fields ...Field) Sink {
	return &zapSink{logger: s.logger.With(fields...)}
}

func (s *zapSink) Sync() error { return s.logger.Sync() }

// Nop returns a Sink that discards everything, for tests and for
// components that have not been given a logger.
func Nop() Sink { return &zapSink{logger: zap.NewNop()} }
