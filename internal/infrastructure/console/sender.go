// Package console delivers verification codes to the process log. Intended for
// local development and tests only.
package console

import (
	"context"
	"log/slog"
)

type Sender struct {
	logger *slog.Logger
}

func NewSender(logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{logger: logger}
}

func (s *Sender) SendCode(ctx context.Context, target, code, link string) error {
	s.logger.InfoContext(ctx, "verification code issued", "target", target, "code", code, "link", link)
	return nil
}
