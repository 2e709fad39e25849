package fasterwhisper

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"transcribe/transcription"
)

const stderrTailLines = 20

var errConsumed = errors.New("faster-whisper: segments already consumed")

// message is one line of helper output. Type is "info" for the single
// detection record, "segment" for everything after it.
type message struct {
	Type string `json:"type"`
	transcription.DetectionInfo
	transcription.Segment
}

type process struct {
	ctx context.Context
	cmd *exec.Cmd
	dec *json.Decoder
	log *slog.Logger

	stderrDone chan struct{}
	tail       []string
	consumed   bool
}

func newProcess(ctx context.Context, cmd *exec.Cmd, stdout io.Reader, logger *slog.Logger) *process {
	return &process{
		ctx:        ctx,
		cmd:        cmd,
		dec:        json.NewDecoder(stdout),
		log:        logger,
		stderrDone: make(chan struct{}),
	}
}

func (p *process) drainStderr(r io.Reader) {
	defer close(p.stderrDone)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		p.log.Debug("faster-whisper", "stderr", line)
		p.tail = append(p.tail, line)
		if len(p.tail) > stderrTailLines {
			p.tail = p.tail[1:]
		}
	}
	// keep the pipe drained so the helper never blocks on a full stderr
	io.Copy(io.Discard, r)
}

func (p *process) readInfo() (transcription.DetectionInfo, error) {
	var msg message
	err := p.dec.Decode(&msg)
	if errors.Is(err, io.EOF) {
		return transcription.DetectionInfo{}, p.failure(errors.New("helper exited before reporting detection info"), p.finish(false))
	}
	if err != nil {
		return transcription.DetectionInfo{}, p.failure(fmt.Errorf("decoding detection info: %w", err), p.finish(true))
	}
	if msg.Type != "info" {
		return transcription.DetectionInfo{}, p.failure(fmt.Errorf("expected info message, got %q", msg.Type), p.finish(true))
	}
	return msg.DetectionInfo, nil
}

func (p *process) segments(yield func(transcription.Segment, error) bool) {
	if p.consumed {
		yield(transcription.Segment{}, errConsumed)
		return
	}
	p.consumed = true

	for {
		var msg message
		err := p.dec.Decode(&msg)
		if errors.Is(err, io.EOF) {
			if waitErr := p.finish(false); waitErr != nil {
				yield(transcription.Segment{}, p.failure(errors.New("helper failed"), waitErr))
			}
			return
		}
		if err != nil {
			yield(transcription.Segment{}, p.failure(fmt.Errorf("decoding segment: %w", err), p.finish(true)))
			return
		}
		if msg.Type != "segment" {
			p.log.Warn("ignoring helper message", "type", msg.Type)
			continue
		}
		if !yield(msg.Segment, nil) {
			p.finish(true)
			p.log.Debug("segment iteration stopped early, helper killed")
			return
		}
	}
}

// finish reaps the helper, killing it first when kill is set. On return the
// stderr tail is complete.
func (p *process) finish(kill bool) error {
	if kill {
		p.cmd.Process.Kill()
	} else {
		<-p.stderrDone
	}
	err := p.cmd.Wait()
	<-p.stderrDone
	return err
}

func (p *process) failure(cause error, waitErr error) error {
	err := cause
	if waitErr != nil {
		err = fmt.Errorf("%w: %w", err, waitErr)
	}
	if ctxErr := p.ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("%w: %w", err, ctxErr)
	}
	if len(p.tail) > 0 {
		err = fmt.Errorf("%w\n%s", err, strings.Join(p.tail, "\n"))
	}
	return fmt.Errorf("faster-whisper: %w", err)
}
