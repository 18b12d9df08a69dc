package sinks_test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/millrace/flume/pkg/sinks"
)

func TestWriterSinkWrites(t *testing.T) {
	var buf bytes.Buffer
	s := sinks.NewWriterSink(&buf, "test")

	n, err := s.Write([]byte("hello\n"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 6 {
		t.Errorf("Write() = %d, want 6", n)
	}
	if buf.String() != "hello\n" {
		t.Errorf("buffer = %q", buf.String())
	}

	stats := s.Stats()
	if stats.WriteCount != 1 {
		t.Errorf("WriteCount = %d, want 1", stats.WriteCount)
	}
	if stats.BytesWritten != 6 {
		t.Errorf("BytesWritten = %d, want 6", stats.BytesWritten)
	}
	if stats.LastWrite.IsZero() {
		t.Error("LastWrite should be set after a write")
	}
}

func TestWriterSinkClosedRejectsWrites(t *testing.T) {
	var buf bytes.Buffer
	s := sinks.NewWriterSink(&buf, "test")

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := s.Write([]byte("late\n")); err == nil {
		t.Fatal("expected write to closed sink to fail")
	}
	if strings.Contains(buf.String(), "late") {
		t.Errorf("closed sink still wrote: %q", buf.String())
	}
	if got := s.Stats().ErrorCount; got != 1 {
		t.Errorf("ErrorCount = %d, want 1", got)
	}
}

func TestWriterSinkFlushesFlushableWriters(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriterSize(&buf, 1024)
	s := sinks.NewWriterSink(bw, "buffered")

	if _, err := s.Write([]byte("buffered line\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("data reached the buffer before Flush: %q", buf.String())
	}

	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if buf.String() != "buffered line\n" {
		t.Errorf("buffer after flush = %q", buf.String())
	}
}

func TestConsoleSinkNames(t *testing.T) {
	if got := sinks.NewStdoutSink().Name(); got != "stdout" {
		t.Errorf("stdout sink name = %q", got)
	}
	if got := sinks.NewStderrSink().Name(); got != "stderr" {
		t.Errorf("stderr sink name = %q", got)
	}
}
