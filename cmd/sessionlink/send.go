package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickgao/sessionlink/internal/connection"
)

func sendCmd(flags *globalFlags) *cobra.Command {
	var (
		sessionID string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send --session ID TEXT...",
		Short: "Send one chat message into a session",
		Long: `Connect, send one chat message into a session, and disconnect.

Examples:
  sessionlink send --session 42 "continue with the migration"
  sessionlink send -s 42 --timeout 30s yes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				return errors.New("--session is required")
			}
			env, err := setup(flags)
			if err != nil {
				return err
			}
			defer env.close()
			return runSend(cmd.Context(), env, sessionID, strings.Join(args, " "), timeout)
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "target session id")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to wait for the connection")

	return cmd
}

func runSend(ctx context.Context, env *environment, sessionID, content string, timeout time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	mgr, unbind := env.newManager(nil)
	defer unbind()

	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("start connection manager: %w", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()
		mgr.Stop(stopCtx)
	}()

	sent := make(chan error, 1)
	report := func(err error) {
		select {
		case sent <- err:
		default:
		}
	}

	mgr.Subscribe(connection.Subscriber{
		// Send is queued behind this callback, so the frame goes out on the
		// socket that just opened.
		OnConnect: func() {
			report(mgr.SendChatMessage(sessionID, content))
		},
		OnStateChange: func(st connection.State) {
			if !st.Connected && !st.Connecting && st.Error != "" {
				report(fmt.Errorf("connection failed: %s", st.Error))
			}
		},
	})

	select {
	case err := <-sent:
		if err != nil {
			return err
		}
		env.logger.Info("message sent", "session", sessionID)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send to session %s: %w", sessionID, ctx.Err())
	}
}
