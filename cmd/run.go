package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/velmik/intake/internal/adapters/transport/console"
	"github.com/velmik/intake/internal/application"
	"github.com/velmik/intake/internal/domain"
)

func newRunCmd(app *app) *cobra.Command {
	var sweepEvery time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Read inbound messages from stdin and drive the collection engine",
		Long: "run reads one inbound message per line from stdin, formatted as\n" +
			"sender<TAB>conversation<TAB>text. Messages starting with /confirm <id> or\n" +
			"/problem <id> resolve the receipt of a recorded transaction; everything\n" +
			"else feeds the field extractor. Outbound replies and notifications are\n" +
			"written to stdout. The loop exits on EOF.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sweepEvery <= 0 {
				return fmt.Errorf("sweep-every must be positive, got %s", sweepEvery)
			}

			messenger := console.NewMessenger(cmd.OutOrStdout())
			pending := application.NewPendingStore(app.pendingTTL, app.clock, app.logger)
			resolver := application.NewAgentResolver(app.directory, app.logger)
			engine := application.NewEngine(pending, app.ledger, resolver, messenger, app.logger)
			confirmations := application.NewConfirmationService(app.ledger, messenger, app.logger)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer cancel()
				return readLoop(ctx, cmd.InOrStdin(), engine, confirmations, messenger, app)
			})
			g.Go(func() error {
				ticker := time.NewTicker(sweepEvery)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
						engine.SweepExpired()
					}
				}
			})

			return g.Wait()
		},
	}

	cmd.Flags().DurationVar(&sweepEvery, "sweep-every", time.Minute, "Interval between expired pending-record sweeps")

	return cmd
}

func readLoop(ctx context.Context, in io.Reader, engine *application.Engine, confirmations *application.ConfirmationService, messenger *console.Messenger, app *app) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		msg, err := parseInbound(line, app.clock.Now())
		if err != nil {
			app.logger.Warn("skip malformed inbound line", zap.Error(err))
			continue
		}

		dispatch(ctx, msg, engine, confirmations, messenger, app.logger)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read inbound messages: %w", err)
	}

	return nil
}

func dispatch(ctx context.Context, msg application.InboundMessage, engine *application.Engine, confirmations *application.ConfirmationService, messenger *console.Messenger, logger *zap.Logger) {
	if id, state, ok := parseReceiptCommand(msg.Text); ok {
		var err error
		switch state {
		case domain.ReceiptConfirmed:
			_, err = confirmations.Confirm(ctx, id, msg.Sender)
		case domain.ReceiptProblem:
			_, err = confirmations.ReportProblem(ctx, id, msg.Sender)
		}

		reply := fmt.Sprintf("receipt for transaction #%d: %s", id, state)
		if err != nil {
			reply = fmt.Sprintf("cannot update receipt for transaction #%d: %v", id, err)
		}
		if replyErr := messenger.Reply(ctx, msg.Conversation, reply); replyErr != nil {
			logger.Warn("reply failed", zap.Error(replyErr))
		}
		return
	}

	if _, err := engine.HandleMessage(ctx, msg); err != nil {
		var missing *domain.MissingFieldsError
		if errors.As(err, &missing) {
			// The engine already prompted the sender for the gap.
			return
		}
		logger.Error("handle message",
			zap.String("sender", string(msg.Sender)),
			zap.Error(err))
	}
}

func parseInbound(line string, now time.Time) (application.InboundMessage, error) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) != 3 {
		return application.InboundMessage{}, fmt.Errorf("expected sender<TAB>conversation<TAB>text, got %d fields", len(parts))
	}

	sender := domain.NormalizeIdentity(parts[0])
	if sender == "" {
		return application.InboundMessage{}, errors.New("empty sender")
	}

	conversation := strings.TrimSpace(parts[1])
	if conversation == "" {
		return application.InboundMessage{}, errors.New("empty conversation")
	}

	return application.InboundMessage{
		Sender:       sender,
		Conversation: domain.ConversationID(conversation),
		Text:         parts[2],
		ReceivedAt:   now,
	}, nil
}

func parseReceiptCommand(text string) (domain.TransactionID, domain.ReceiptState, bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) != 2 {
		return 0, "", false
	}

	var state domain.ReceiptState
	switch fields[0] {
	case "/confirm":
		state = domain.ReceiptConfirmed
	case "/problem":
		state = domain.ReceiptProblem
	default:
		return 0, "", false
	}

	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}

	return domain.TransactionID(id), state, true
}
