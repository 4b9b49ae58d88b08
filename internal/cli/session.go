package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSessionCmd создаёт группу команд для работы с сессиями.
func NewSessionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and clear sessions",
	}

	cmd.AddCommand(
		newSessionHistoryCmd(clientFn, outputFn),
		newSessionClearCmd(clientFn, outputFn),
	)

	return cmd
}

func newSessionHistoryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "history ID",
		Short: "Show stage history of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			history, err := client.SessionHistory(args[0])
			if err != nil {
				return err
			}

			headers := []string{"TIME", "FLOW", "STAGE", "DESIGN", "STATUS", "CHECKPOINT"}
			rows := make([][]string, len(history))
			for i, e := range history {
				rows[i] = []string{e.Time, e.Flow, e.Stage, e.Design, e.Status, e.Checkpoint}
			}

			out.Print(headers, rows, history)
			return nil
		},
	}
}

func newSessionClearCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "clear ID",
		Short: "Delete a session and its accumulated context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.ClearSession(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Session cleared: %s", args[0]))
			return nil
		},
	}
}
