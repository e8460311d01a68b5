package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/rickgao/sessionlink/internal/connection"
	"github.com/rickgao/sessionlink/internal/protocol"
)

func tailCmd(flags *globalFlags) *cobra.Command {
	var (
		channel string
		id      string
		types   []string
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print every inbound realtime frame",
		Long: `Connect to the realtime endpoint and print each inbound frame as one
JSON line on stdout. Connection state changes go to the log.

Examples:
  sessionlink tail
  sessionlink tail --type sidebar_update
  sessionlink tail --channel session --id 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (channel == "") != (id == "") {
				return fmt.Errorf("--channel and --id must be set together")
			}
			env, err := setup(flags)
			if err != nil {
				return err
			}
			defer env.close()
			return runTail(env, cmd.OutOrStdout(), channel, id, types)
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "channel to subscribe to after connecting")
	cmd.Flags().StringVar(&id, "id", "", "resource id for --channel")
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "only print these frame types")

	return cmd
}

func runTail(env *environment, out io.Writer, channel, id string, types []string) error {
	logger := env.logger

	ctx, cancel := signalContext(logger)
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

	filter := frameFilter(types)
	var outMu sync.Mutex

	subID := mgr.Subscribe(connection.Subscriber{
		OnMessage: func(msg protocol.Message) {
			if !filter(msg.Type) {
				return
			}
			outMu.Lock()
			fmt.Fprintln(out, string(msg.Raw))
			outMu.Unlock()
		},
		OnConnect: func() {
			logger.Info("connected")
			if channel != "" {
				if err := mgr.SubscribeChannel(channel, id); err != nil {
					logger.Error("failed to subscribe channel", "channel", channel, "error", err)
				}
			}
		},
		OnDisconnect: func() {
			logger.Info("disconnected")
		},
		OnStateChange: func(st connection.State) {
			if st.Error != "" {
				logger.Warn("connection error", "error", st.Error)
			}
		},
		AutoReconnect: true,
	})
	defer mgr.Unsubscribe(subID)

	<-ctx.Done()
	return nil
}

// frameFilter matches frame types against an allow list. An empty list
// matches everything.
func frameFilter(types []string) func(string) bool {
	if len(types) == 0 {
		return func(string) bool { return true }
	}
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return func(t string) bool {
		_, ok := allowed[t]
		return ok
	}
}
