package fasterwhisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const helperOutput = `{"type":"info","language":"en","language_probability":0.97,"duration":4.2}
{"type":"segment","id":1,"start":0.0,"end":1.5,"text":" Hello"}
{"type":"segment","id":2,"start":1.5,"end":3.0,"text":" world"}
{"type":"segment","id":3,"start":3.0,"end":4.2,"text":" !"}
`

// fakePython writes a shell script that stands in for the interpreter. It
// records its arguments in the returned args file and then runs body.
func fakePython(t *testing.T, body string) (python string, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter needs /bin/sh")
	}

	dir := t.TempDir()
	python = filepath.Join(dir, "python")
	argsFile = filepath.Join(dir, "args")
	script := fmt.Sprintf("#!/bin/sh\nprintf '%%s\\n' \"$@\" > %q\n%s\n", argsFile, body)
	if err := os.WriteFile(python, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return python, argsFile
}

func printing(out string) string {
	return "cat <<'EOF'\n" + out + "EOF"
}

func TestModelTranscribe(t *testing.T) {
	python, argsFile := fakePython(t, printing(helperOutput))
	m := New(python, DefaultProfile, nil)
	defer m.Close()

	segments, info, err := m.Transcribe(context.Background(), "sample.wav", "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if info.Language != "en" || !info.LanguageProbability.Equal(decimal.RequireFromString("0.97")) {
		t.Fatalf("info = %+v", info)
	}
	if !info.Duration.Equal(decimal.RequireFromString("4.2")) {
		t.Fatalf("duration = %s", info.Duration)
	}

	var texts, stamps []string
	for seg, err := range segments {
		if err != nil {
			t.Fatalf("segment error: %v", err)
		}
		texts = append(texts, seg.Text)
		stamps = append(stamps, seg.Start.StringFixed(2)+"-"+seg.End.StringFixed(2))
	}
	if got := strings.Join(texts, "|"); got != " Hello| world| !" {
		t.Fatalf("texts = %q", got)
	}
	if got := strings.Join(stamps, " "); got != "0.00-1.50 1.50-3.00 3.00-4.20" {
		t.Fatalf("timestamps = %q", got)
	}

	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	args := string(raw)
	for _, want := range []string{
		"--audio\nsample.wav\n",
		"--language\nen\n",
		"--model\nsmall\n",
		"--device\ncpu\n",
		"--compute-type\nint8\n",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("helper args missing %q:\n%s", want, args)
		}
	}
}

func TestModelLoadIsLazy(t *testing.T) {
	python, _ := fakePython(t, printing(helperOutput))
	m := New(python, DefaultProfile, nil)

	if m.dir != "" {
		t.Fatal("helper materialized before first use")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close on unused model: %v", err)
	}

	segments, _, err := m.Transcribe(context.Background(), "sample.wav", "de")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	for range segments {
	}

	script, err := os.ReadFile(m.script)
	if err != nil {
		t.Fatalf("reading helper: %v", err)
	}
	if string(script) != string(helperScript) {
		t.Fatal("materialized helper differs from embedded script")
	}

	dir := m.dir
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("helper dir still present after Close: %v", err)
	}
}

func TestModelFailsBeforeInfo(t *testing.T) {
	python, _ := fakePython(t, "echo 'RuntimeError: unsupported audio format' >&2\nexit 1")
	m := New(python, DefaultProfile, nil)
	defer m.Close()

	_, _, err := m.Transcribe(context.Background(), "corrupt.wav", "de")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unsupported audio format") {
		t.Fatalf("error lacks helper diagnostic: %v", err)
	}
	var exitErr interface{ ExitCode() int }
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("error does not carry exit status 1: %v", err)
	}
}

func TestModelFailsMidStream(t *testing.T) {
	out := `{"type":"info","language":"de","language_probability":1,"duration":9}
{"type":"segment","id":1,"start":0,"end":2,"text":" Hallo"}
`
	python, _ := fakePython(t, printing(out)+"\necho 'decoder crashed' >&2\nexit 2")
	m := New(python, DefaultProfile, nil)
	defer m.Close()

	segments, _, err := m.Transcribe(context.Background(), "a.wav", "de")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	var got int
	var streamErr error
	for seg, err := range segments {
		if err != nil {
			streamErr = err
			break
		}
		if seg.Text != " Hallo" {
			t.Fatalf("segment text = %q", seg.Text)
		}
		got++
	}
	if got != 1 {
		t.Fatalf("segments before failure = %d, want 1", got)
	}
	if streamErr == nil || !strings.Contains(streamErr.Error(), "decoder crashed") {
		t.Fatalf("stream error = %v", streamErr)
	}
}

func TestModelRejectsGarbage(t *testing.T) {
	python, _ := fakePython(t, "echo 'not json'")
	m := New(python, DefaultProfile, nil)
	defer m.Close()

	if _, _, err := m.Transcribe(context.Background(), "a.wav", "de"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestModelEarlyBreakKillsHelper(t *testing.T) {
	out := `{"type":"info","language":"en","language_probability":0.5,"duration":60}
{"type":"segment","id":1,"start":0,"end":1,"text":"first"}
`
	python, _ := fakePython(t, printing(out)+"\nexec sleep 30")
	m := New(python, DefaultProfile, nil)
	defer m.Close()

	segments, _, err := m.Transcribe(context.Background(), "a.wav", "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	start := time.Now()
	for seg, err := range segments {
		if err != nil {
			t.Fatalf("segment error: %v", err)
		}
		if seg.Text != "first" {
			t.Fatalf("segment text = %q", seg.Text)
		}
		break
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("breaking out took %s, helper was not killed", elapsed)
	}
}

func TestModelSegmentsAreSingleUse(t *testing.T) {
	python, _ := fakePython(t, printing(helperOutput))
	m := New(python, DefaultProfile, nil)
	defer m.Close()

	segments, _, err := m.Transcribe(context.Background(), "a.wav", "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	for range segments {
	}

	for _, err := range segments {
		if !errors.Is(err, errConsumed) {
			t.Fatalf("second range err = %v, want errConsumed", err)
		}
	}
}

func TestModelMissingInterpreter(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "no-such-python"), DefaultProfile, nil)
	defer m.Close()

	if _, _, err := m.Transcribe(context.Background(), "a.wav", "de"); err == nil {
		t.Fatal("expected start error")
	}
}

func TestModelCancelStopsHelper(t *testing.T) {
	out := `{"type":"info","language":"en","language_probability":0.5,"duration":60}
`
	python, _ := fakePython(t, printing(out)+"\nexec sleep 30")
	m := New(python, DefaultProfile, nil)
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	segments, _, err := m.Transcribe(ctx, "a.wav", "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	cancel()

	start := time.Now()
	var streamErr error
	for _, err := range segments {
		streamErr = err
		break
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("cancel took %s, helper was not killed", elapsed)
	}
	if !errors.Is(streamErr, context.Canceled) {
		t.Fatalf("stream error = %v, want context.Canceled", streamErr)
	}
}
