package fasterwhisper

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"transcribe/b3"
	"transcribe/transcription"
)

//go:embed assets/helper.py
var helperScript []byte

// Profile selects the faster-whisper model weights and how they are run.
type Profile struct {
	Size        string
	Device      string
	ComputeType string
}

// DefaultProfile is the small multilingual model, int8 quantized on CPU.
var DefaultProfile = Profile{Size: "small", Device: "cpu", ComputeType: "int8"}

// Model runs faster-whisper through an embedded Python helper. The helper is
// written to disk on first use and removed by Close.
type Model struct {
	python  string
	profile Profile
	log     *slog.Logger

	once    sync.Once
	dir     string
	script  string
	loadErr error
}

var _ transcription.Engine = (*Model)(nil)

func New(python string, profile Profile, logger *slog.Logger) *Model {
	if python == "" {
		python = "python3"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Model{python: python, profile: profile, log: logger}
}

func (m *Model) load() error {
	m.once.Do(func() {
		sum, err := b3.Sum(bytes.NewReader(helperScript))
		if err != nil {
			m.loadErr = fmt.Errorf("loading faster-whisper helper: %w", err)
			return
		}

		dir, err := os.MkdirTemp("", "transcribe-")
		if err != nil {
			m.loadErr = fmt.Errorf("loading faster-whisper helper: %w", err)
			return
		}

		script := filepath.Join(dir, "faster_whisper_"+sum[:16]+".py")
		if err := os.WriteFile(script, helperScript, 0o755); err != nil {
			os.RemoveAll(dir)
			m.loadErr = fmt.Errorf("writing faster-whisper helper: %w", err)
			return
		}

		m.dir, m.script = dir, script
		m.log.Debug("faster-whisper helper ready", "script", script, "model", m.profile.Size, "device", m.profile.Device, "compute_type", m.profile.ComputeType)
	})
	return m.loadErr
}

// Close removes the materialized helper. It is a no-op when the model was
// never used.
func (m *Model) Close() error {
	if m.dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("closing faster-whisper model: %w", err)
	}
	m.dir = ""
	return nil
}

func (m *Model) Transcribe(ctx context.Context, audioPath string, language string) (iter.Seq2[transcription.Segment, error], transcription.DetectionInfo, error) {
	if err := m.load(); err != nil {
		return nil, transcription.DetectionInfo{}, err
	}

	cmd := exec.CommandContext(ctx, m.python, m.script,
		"--audio", audioPath,
		"--language", language,
		"--model", m.profile.Size,
		"--device", m.profile.Device,
		"--compute-type", m.profile.ComputeType,
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, transcription.DetectionInfo{}, fmt.Errorf("faster-whisper: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, transcription.DetectionInfo{}, fmt.Errorf("faster-whisper: stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, transcription.DetectionInfo{}, fmt.Errorf("faster-whisper: starting helper: %w", err)
	}

	p := newProcess(ctx, cmd, stdout, m.log)
	go p.drainStderr(stderr)

	info, err := p.readInfo()
	if err != nil {
		return nil, transcription.DetectionInfo{}, err
	}
	m.log.Debug("language detected", "language", info.Language, "probability", info.LanguageProbability, "duration", info.Duration)

	return p.segments, info, nil
}
