package casino

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/casino/internal/chat"
)

// Run drives a session to completion over p. Each prompt waits up to timeout
// for a matching reply; a timeout expires the prompt, which applies the
// session's default decision. Errors other than timeouts abort the session.
func Run(ctx context.Context, sess Session, p chat.Prompter, timeout time.Duration, logger *log.Logger) (Result, error) {
	step, err := sess.Start(ctx)
	for {
		if err != nil {
			return Result{}, err
		}
		for _, n := range step.Notices {
			if err := p.Send(ctx, n); err != nil {
				return Result{}, fmt.Errorf("failed to send notice: %w", err)
			}
		}
		if step.Result != nil {
			return *step.Result, nil
		}
		if step.Prompt == nil {
			return Result{}, errors.New("casino: session step has neither prompt nor result")
		}

		if err := p.Send(ctx, step.Prompt.Message); err != nil {
			return Result{}, fmt.Errorf("failed to send prompt: %w", err)
		}
		logger.Debug("Awaiting reply", "choices", step.Prompt.Choices, "timeout", timeout)

		reply, awaitErr := p.Await(ctx, step.Prompt.Choices, timeout)
		switch {
		case errors.Is(awaitErr, chat.ErrTimeout):
			logger.Warn("Prompt timed out, applying default", "choices", step.Prompt.Choices)
			step, err = sess.Expire(ctx)
		case awaitErr != nil:
			return Result{}, awaitErr
		default:
			logger.Debug("Reply", "reply", reply)
			step, err = sess.Resume(ctx, reply)
		}
	}
}
