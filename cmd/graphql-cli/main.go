// Command graphql-cli is a local harness for the graph.query command
// surface (§6), standing in for the real host module ABI so the lexer→
// parser→validator→planner→runtime pipeline is exercisable end to end
// without one. Grounded on the teacher's cmd/nornicdb/main.go cobra root
// command.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucidgraph/lucid/internal/config"
	"github.com/lucidgraph/lucid/pkg/engine"
)

var (
	version = "0.1.0"

	configPath string
	debug      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "graphql-cli",
		Short: "Query an in-memory property graph with a Cypher-like language",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config override file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "include a plan dump with query results")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("graphql-cli v%s\n", version)
		},
	})

	queryCmd := &cobra.Command{
		Use:   "query <key> <cypher>",
		Short: "Run one query against a named graph, auto-created on first use",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := newServer()
			return runQuery(srv, args[0], args[1])
		},
	}
	rootCmd.AddCommand(queryCmd)

	replCmd := &cobra.Command{
		Use:   "repl <key>",
		Short: "Interactively run queries against a named graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(newServer(), args[0])
		},
	}
	rootCmd.AddCommand(replCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServer() *engine.Server {
	return engine.NewServer(config.LoadFromEnv(configPath))
}

func runQuery(srv *engine.Server, key, query string) error {
	result, err := srv.Query(key, query, debug)
	if err != nil {
		fmt.Println(engine.FormatError(err))
		return nil
	}
	printResult(result)
	return nil
}

func runRepl(srv *engine.Server, key string) error {
	fmt.Printf("graphql-cli repl — graph %q, empty line to quit\n", key)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("cypher> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil
		}
		result, err := srv.Query(key, line, debug)
		if err != nil {
			fmt.Println(engine.FormatError(err))
			continue
		}
		printResult(result)
	}
}

func printResult(result *engine.Result) {
	if result.Plan != "" {
		fmt.Println("-- plan --")
		fmt.Println(result.Plan)
	}
	for _, row := range result.Rows {
		enc, err := json.Marshal(row)
		if err != nil {
			fmt.Printf("%v\n", []any(row))
			continue
		}
		fmt.Println(string(enc))
	}
	fmt.Printf("(%d rows)\n", len(result.Rows))
}
