package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/szaher/lingochat/internal/chat"
	"github.com/szaher/lingochat/internal/llm"
	"github.com/szaher/lingochat/internal/runtime"
)

func newChatCmd() *cobra.Command {
	var (
		message   string
		sessionID string
		lang      string
		file      string
		mock      bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Send one message and print the reply",
		Long:  "One-shot chat: load config, build the provider, send a message (and optional file), print the reply.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" && file == "" {
				return errors.New("--message or --file is required")
			}

			cfg, err := runtime.LoadConfig(configFile)
			if err != nil {
				return err
			}
			if !verbose {
				cfg.LogLevel = "error"
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			var attachment *llm.Attachment
			if file != "" {
				attachment, err = readAttachment(file, cfg.MaxAttachmentBytes)
				if err != nil {
					return err
				}
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			opts := runtime.Options{Logger: logger}
			if mock {
				opts.LLMClient = llm.EchoClient{}
				opts.Provider = "echo"
			}
			rt, err := runtime.New(ctx, cfg, opts)
			if err != nil {
				return err
			}

			resp, err := rt.Service().Respond(ctx, chat.Request{
				Message:    message,
				SessionID:  sessionID,
				Attachment: attachment,
				Language:   lang,
			})
			if err != nil {
				return fmt.Errorf("chat failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Response)
			if verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "\nlanguage: %s (%s)\n", resp.Language, resp.Language.Locale())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&message, "message", "", "Message to send")
	cmd.Flags().StringVar(&sessionID, "session", "cli", "Session ID")
	cmd.Flags().StringVar(&lang, "language", "", "Reply language (default: detect)")
	cmd.Flags().StringVar(&file, "file", "", "Path of a file to attach")
	cmd.Flags().BoolVar(&mock, "mock", false, "Answer with the offline echo provider instead of a real model")

	return cmd
}

func readAttachment(path string, limit int64) (*llm.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading attachment: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("attachment %s is %d bytes, limit is %d", path, len(data), limit)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}

	return &llm.Attachment{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
		Name:     filepath.Base(path),
	}, nil
}
