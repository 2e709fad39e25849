package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"transcribe/transcription"
)

const (
	exitOK      = 0
	exitFailure = 1

	usageLine = "Usage: transcribe.py <audio_file> [language]"
)

func newRootCmd(engine transcription.Engine, logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <audio_file> [language]",
		Short: "Transcribe an audio file with faster-whisper",
		Long: "Transcribe runs the small faster-whisper model (int8, CPU) on one audio file and prints\n" +
			"timestamped segments followed by the full transcript. The language defaults to \"" + transcription.DefaultLanguage + "\".",
		// Positional only: a path starting with '-' is still a path.
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return transcription.ErrUsage
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := transcription.NewRequest(args)
			if err != nil {
				return err
			}

			svc := transcription.NewService(engine, cmd.OutOrStdout(), logger)
			tr, err := svc.Transcribe(cmd.Context(), req)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), transcription.FormatFinal(tr.Text()))
			return err
		},
	}
}

// run executes one invocation and maps its outcome to an exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, engine transcription.Engine, logger *slog.Logger) int {
	if args == nil {
		args = []string{}
	}

	cmd := newRootCmd(engine, logger)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var notFound *transcription.InputNotFoundError
	switch {
	case errors.Is(err, transcription.ErrUsage):
		fmt.Fprintln(stdout, usageLine)
	case errors.As(err, &notFound):
		fmt.Fprintf(stdout, "Error: %v\n", notFound)
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitFailure
}
