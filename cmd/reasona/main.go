package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reasonalabs/reasona"
	"github.com/reasonalabs/reasona/agent"
	"github.com/reasonalabs/reasona/config"
	"github.com/reasonalabs/reasona/logging"
	"github.com/reasonalabs/reasona/server"
	"github.com/reasonalabs/reasona/tool"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reasona",
		Short: "Agent orchestration toolkit",
		Long:  "Reasona builds, runs and serves LLM agents: single conductors, staged workflows and multi-agent networks.",
	}

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newChatCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newToolsCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("reasona %s\n", reasona.Version)
			fmt.Printf("go: %s\n", runtime.Version())
			fmt.Printf("platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [agent-file.md]",
		Short: "Start an interactive chat session",
		Long:  "Chat with a model directly, or with an agent loaded from a markdown definition.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelID, _ := cmd.Flags().GetString("model")
			system, _ := cmd.Flags().GetString("system")
			temperature, _ := cmd.Flags().GetFloat64("temperature")

			var (
				conductor *agent.Conductor
				err       error
			)
			if len(args) == 1 {
				conductor, err = agent.FromMarkdown(args[0])
			} else {
				conductor, err = agent.New("chat", func(o *agent.Options) {
					o.ModelID = modelID
					o.Temperature = temperature
					if system != "" {
						o.Instructions = system
					}
				})
			}
			if err != nil {
				return err
			}

			info := conductor.Model().Info()
			fmt.Printf("Agent: %s\n", conductor.Name())
			fmt.Printf("Model: %s/%s\n", info.Provider, info.Name)
			fmt.Println("\nType 'exit' to quit, '/reset' to clear history.")

			return chatLoop(cmd.Context(), conductor)
		},
	}

	cmd.Flags().StringP("model", "m", agent.DefaultModelID, "Model to use (provider/name)")
	cmd.Flags().StringP("system", "s", "", "System prompt")
	cmd.Flags().Float64P("temperature", "t", 0.7, "Sampling temperature")
	return cmd
}

func chatLoop(ctx context.Context, conductor *agent.Conductor) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())

		switch {
		case input == "":
			continue
		case input == "exit" || input == "quit":
			return nil
		case input == "/reset":
			conductor.Reset()
			fmt.Println("Conversation reset.")
			continue
		}

		fmt.Printf("%s: ", conductor.Name())
		chunks, errs := conductor.Stream(ctx, input)
		for chunk := range chunks {
			fmt.Print(chunk)
		}
		fmt.Println()
		if err := <-errs; err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <agent-file.md>",
		Short: "Serve an agent over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _ := cmd.Flags().GetString("host")
			port, _ := cmd.Flags().GetInt("port")
			withTools, _ := cmd.Flags().GetBool("builtin-tools")

			path := args[0]
			if filepath.Ext(path) != ".md" {
				return fmt.Errorf("unsupported agent file %q: expected a .md definition", path)
			}

			conductor, err := agent.FromMarkdown(path)
			if err != nil {
				return err
			}
			if withTools {
				for _, t := range tool.Builtins() {
					conductor.AddTool(t)
				}
			}

			cfg := config.FromEnv()
			if host == "" {
				host = cfg.ServerHost
			}
			if port == 0 {
				port = cfg.ServerPort
			}

			addr := fmt.Sprintf("%s:%d", host, port)
			fmt.Printf("Serving agent %q on http://%s\n", conductor.Name(), addr)
			fmt.Printf("Agent card: http://%s/.well-known/agent-card.json\n", addr)

			srv := server.New(conductor, func(o *server.Options) {
				o.Addr = addr
				o.Logger = logging.NewSlogLogger(logging.ParseLevel(cfg.LogLevel), "text", os.Stderr)
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Start(ctx)
		},
	}

	cmd.Flags().String("host", "", "Host to bind to (defaults to config)")
	cmd.Flags().IntP("port", "p", 0, "Port to serve on (defaults to config)")
	cmd.Flags().Bool("builtin-tools", false, "Attach the built-in tool set to the agent")
	return cmd
}

func newToolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the built-in tools",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all built-in tools",
		Run: func(cmd *cobra.Command, args []string) {
			tools := tool.Builtins()
			sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
			for _, t := range tools {
				fmt.Printf("%-14s %s\n", t.Name(), t.Description())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "info <name>",
		Short: "Show a tool's parameter schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range tool.Builtins() {
				if t.Name() == args[0] {
					fmt.Printf("%s: %s\n\n", t.Name(), t.Description())
					fmt.Println(formatSchema(t.Parameters()))
					return nil
				}
			}
			return fmt.Errorf("tool %q not found", args[0])
		},
	})

	return cmd
}

func formatSchema(schema map[string]any) string {
	properties, _ := schema["properties"].(map[string]any)
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Parameters:\n")
	for _, name := range names {
		prop, _ := properties[name].(map[string]any)
		b.WriteString(fmt.Sprintf("  %-12s %v  %v\n", name, prop["type"], prop["description"]))
	}
	return b.String()
}
