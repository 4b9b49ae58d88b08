// AutoEDA CLI — инструмент командной строки для запуска потоков
// физического дизайна через HTTP API оркестратора.
//
// Использование:
//
//	autoeda [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	flow     Запуск потоков и справка по этапам
//	session  История и очистка сессий
//	design   Версии артефактов и журнал запусков
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Duke-CEI-Center/AutoEDA/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

// defaultAgentURL возвращает адрес оркестратора: переменная окружения
// AGENT_URL, иначе локальный агент.
func defaultAgentURL() string {
	if v := os.Getenv("AGENT_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "autoeda",
		Short:         "AutoEDA CLI — physical design flow tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultAgentURL(), "agent URL (default from AGENT_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewFlowCmd(clientFn, outputFn),
		cli.NewSessionCmd(clientFn, outputFn),
		cli.NewDesignCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
