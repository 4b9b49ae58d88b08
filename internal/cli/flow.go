package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewFlowCmd создаёт группу команд для запуска потоков.
func NewFlowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Run physical design flows",
	}

	cmd.AddCommand(
		newFlowRunCmd(clientFn, outputFn),
		newFlowStagesCmd(clientFn, outputFn),
	)

	return cmd
}

func newFlowRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		flow      string
		tech      string
		topModule string
		strategy  string
		sessionID string
		force     bool
		sets      []string
		stageSets []string
	)

	cmd := &cobra.Command{
		Use:   "run DESIGN",
		Short: "Run a flow for a design",
		Long: `Run a flow for a design and wait for it to finish.

The flow is either a composite ("full_flow", "pnr") or a single stage
name ("synth", "unified_placement", "cts", "unified_route_save";
legacy names like "floorplan" are accepted too).`,
		Example: `  autoeda flow run b14 --flow full_flow --top-module b14_top
  autoeda flow run b14 --flow pnr --strategy performance --session s1
  autoeda flow run b14 --flow cts --set syn_ver=cpV1_clkP1_drcV1
  autoeda flow run b14 --stage-set unified_placement:target_util=0.7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			params, err := parseSetFlags(sets)
			if err != nil {
				return err
			}

			stageReqs, err := parseStageSetFlags(stageSets)
			if err != nil {
				return err
			}

			result, err := client.RunFlow(RunFlowRequest{
				Flow:              flow,
				Design:            args[0],
				Tech:              tech,
				TopModule:         topModule,
				Strategy:          strategy,
				Parameters:        params,
				StageRequirements: stageReqs,
				SessionID:         sessionID,
				Force:             force,
			})
			if err != nil {
				return err
			}

			for _, a := range result.Advisories {
				out.Warn("advisory: " + a)
			}

			headers := []string{"STAGE", "STATUS", "CHECKPOINT", "DETAIL"}
			rows := make([][]string, len(result.Stages))
			for i, s := range result.Stages {
				status, checkpoint, detail := "-", "", ""
				if s.Result != nil {
					status = s.Result.Status
					checkpoint = s.Result.Checkpoint
					detail = s.Result.Detail
				}
				rows[i] = []string{s.Stage, status, checkpoint, detail}
			}
			out.Print(headers, rows, result)

			switch result.State {
			case "COMPLETED":
				out.Success(fmt.Sprintf("Flow completed: run %s", result.RunID))
				if result.FinalCheckpoint != "" {
					out.Success("Final checkpoint: " + result.FinalCheckpoint)
				}
				return nil
			default:
				if result.Halt != nil {
					return fmt.Errorf("flow halted at %s (%s): %s",
						result.Halt.Stage, result.Halt.Kind, result.Halt.Reason)
				}
				return fmt.Errorf("flow finished in state %s", result.State)
			}
		},
	}

	cmd.Flags().StringVar(&flow, "flow", "full_flow", "Flow or single stage to run")
	cmd.Flags().StringVar(&tech, "tech", "", "Technology library (default: FreePDK45)")
	cmd.Flags().StringVar(&topModule, "top-module", "", "RTL top module name")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Optimization strategy: fast, performance, power, area")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID for parameter inheritance")
	cmd.Flags().BoolVar(&force, "force", false, "Redo stages even if results exist")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Parameter override key=value (repeatable)")
	cmd.Flags().StringArrayVar(&stageSets, "stage-set", nil, "Per-stage override stage:key=value (repeatable)")

	return cmd
}

func newFlowStagesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List flow stages in canonical order",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			stages, err := client.ListStages()
			if err != nil {
				return err
			}

			headers := []string{"STAGE", "PREDECESSOR", "REQUIRED", "NEEDS CHECKPOINT"}
			rows := make([][]string, len(stages))
			for i, s := range stages {
				rows[i] = []string{
					s.Name,
					s.Predecessor,
					strings.Join(s.Required, ","),
					strconv.FormatBool(s.CheckpointRequired),
				}
			}

			out.Print(headers, rows, stages)
			return nil
		},
	}
}

// parseSetFlags разбирает переопределения формата key=value.
// Значения приводятся к bool/int/float, если разбираются; иначе строка.
func parseSetFlags(sets []string) (map[string]any, error) {
	if len(sets) == 0 {
		return nil, nil
	}

	params := make(map[string]any, len(sets))
	for _, s := range sets {
		key, raw, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", s)
		}
		params[key] = parseValue(raw)
	}
	return params, nil
}

// parseStageSetFlags разбирает переопределения формата stage:key=value.
func parseStageSetFlags(sets []string) (map[string]map[string]any, error) {
	if len(sets) == 0 {
		return nil, nil
	}

	reqs := make(map[string]map[string]any)
	for _, s := range sets {
		stage, kv, ok := strings.Cut(s, ":")
		if !ok || stage == "" {
			return nil, fmt.Errorf("invalid --stage-set %q: expected stage:key=value", s)
		}
		key, raw, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --stage-set %q: expected stage:key=value", s)
		}
		if reqs[stage] == nil {
			reqs[stage] = make(map[string]any)
		}
		reqs[stage][key] = parseValue(raw)
	}
	return reqs, nil
}

func parseValue(raw string) any {
	// Числа раньше булевых: ParseBool принимает "1"/"0"/"t"/"f",
	// а "--set g_idx=1" должен остаться числом.
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	switch raw {
	case "true", "false":
		return raw == "true"
	}
	return raw
}
