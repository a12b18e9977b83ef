package ui

import (
	"bytes"
	"testing"
)

func TestWarn(t *testing.T) {
	var buf bytes.Buffer
	SetWriter(&buf)
	defer SetWriter(nil)
	SetColorEnabled(false)

	Warn("something happened")

	if got := buf.String(); got != "Warning: something happened\n" {
		t.Errorf("Warn output = %q, want %q", got, "Warning: something happened\n")
	}
}

func TestWarnf(t *testing.T) {
	var buf bytes.Buffer
	SetWriter(&buf)
	defer SetWriter(nil)
	SetColorEnabled(false)

	Warnf("--access %s ignored: policy %s already exists", "r", "ev-read")

	want := "Warning: --access r ignored: policy ev-read already exists\n"
	if got := buf.String(); got != want {
		t.Errorf("Warnf output = %q, want %q", got, want)
	}
}

func TestErrorf(t *testing.T) {
	var buf bytes.Buffer
	SetWriter(&buf)
	defer SetWriter(nil)
	SetColorEnabled(false)

	Errorf("stage %s failed", "bucket")

	want := "Error: stage bucket failed\n"
	if got := buf.String(); got != want {
		t.Errorf("Errorf output = %q, want %q", got, want)
	}
}

func TestInfof(t *testing.T) {
	var buf bytes.Buffer
	SetWriter(&buf)
	defer SetWriter(nil)

	Infof("Using account #%s, %q.", "123456789012", "user/alice")

	want := "Using account #123456789012, \"user/alice\".\n"
	if got := buf.String(); got != want {
		t.Errorf("Infof output = %q, want %q", got, want)
	}
}

func TestColorCodes(t *testing.T) {
	var buf bytes.Buffer
	SetWriter(&buf)
	defer SetWriter(nil)
	SetColorEnabled(true)
	defer SetColorEnabled(false)

	Warn("colored")

	if got := buf.String(); got != "\033[33mWarning:\033[0m colored\n" {
		t.Errorf("Warn output = %q", got)
	}
}
