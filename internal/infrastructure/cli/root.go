package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/doeshing/sqlchat/internal/app"
	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}

	askCmd := newAskCommand(container)

	root := &cobra.Command{
		Use:   "sqlchat [question]",
		Short: "sqlchat - ask your analytics tables in plain language",
		Long:  "sqlchat answers natural-language questions by letting an LLM agent explore and query a SQL catalog.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			askCmd.SetArgs(args)
			return askCmd.ExecuteContext(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(askCmd)
	root.AddCommand(commands.NewServeCommand(container))
	root.AddCommand(commands.NewTablesCommand(container))
	root.AddCommand(commands.NewHistoryCommand(container))
	root.AddCommand(commands.NewDoctorCommand(container))
	root.AddCommand(commands.NewConfigCommand(container))
	root.AddCommand(commands.NewModelsCommand(container))
	root.AddCommand(commands.NewGuardrailCommand(container))
	root.AddCommand(commands.NewVersionCommand())
	return root, nil
}

func newAskCommand(container *app.Container) *cobra.Command {
	var (
		userName string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question, or read questions from stdin when none is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sess := domain.NewSession(uuid.NewString(), container.Config.ConversationLimit())
			sess.SignIn(userName)
			display := NewStreamWriter(cmd.OutOrStdout(), cmd.ErrOrStderr())

			if len(args) > 0 {
				return askOnce(ctx, cmd.OutOrStdout(), container, sess, display, strings.Join(args, " "), timeout)
			}
			return askLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), container, sess, display, timeout)
		},
	}

	cmd.Flags().StringVarP(&userName, "user", "u", currentUser(), "User name recorded with each question")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-question deadline (0 uses agent.timeout from config)")
	return cmd
}

func askOnce(ctx context.Context, out io.Writer, container *app.Container, sess *domain.Session, display *streamWriter, question string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	result, err := container.ChatService.Ask(ctx, sess, question, display)
	display.Clear()
	RenderTurn(out, result)

	var persistErr *domain.PersistenceError
	if errors.As(err, &persistErr) {
		fmt.Fprintf(out, "warning: %v\n", err)
		return nil
	}
	return err
}

// askLoop keeps one session across questions so follow-ups see the transcript.
func askLoop(ctx context.Context, in io.Reader, out io.Writer, container *app.Container, sess *domain.Session, display *streamWriter, timeout time.Duration) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "? ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "exit" || question == "quit" {
			return nil
		}
		if err := askOnce(ctx, out, container, sess, display, question, timeout); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}
