package cli

import (
	"github.com/spf13/cobra"
)

// NewDesignCmd создаёт группу команд для работы с дизайнами.
func NewDesignCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "design",
		Short: "Inspect design artifacts and run history",
	}

	cmd.AddCommand(
		newDesignVersionsCmd(clientFn, outputFn),
		newDesignRunsCmd(clientFn, outputFn),
	)

	return cmd
}

func newDesignVersionsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var tech string

	cmd := &cobra.Command{
		Use:   "versions DESIGN",
		Short: "List synthesis and implementation versions of a design",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			versions, err := client.DesignVersions(args[0], tech)
			if err != nil {
				return err
			}

			headers := []string{"CATEGORY", "VERSION", "MODIFIED"}
			var rows [][]string
			for _, v := range versions.Synthesis {
				rows = append(rows, []string{"synthesis", v.Name, v.ModTime})
			}
			for _, v := range versions.Implementation {
				rows = append(rows, []string{"implementation", v.Name, v.ModTime})
			}

			out.Print(headers, rows, versions)
			return nil
		},
	}

	cmd.Flags().StringVar(&tech, "tech", "", "Technology library (default: FreePDK45)")

	return cmd
}

func newDesignRunsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs DESIGN",
		Short: "List recent flow runs of a design",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.DesignRuns(args[0], limit)
			if err != nil {
				return err
			}

			headers := []string{"RUN", "FLOW", "STATE", "SESSION", "HALT", "STARTED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				halt := ""
				if r.HaltStage != "" {
					halt = r.HaltStage + ": " + r.HaltReason
				}
				rows[i] = []string{r.RunID, r.Flow, r.State, r.SessionID, halt, r.StartedAt}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")

	return cmd
}
