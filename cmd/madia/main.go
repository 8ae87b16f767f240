// MAD-IA - Spanish voice assistant with tool use
// Serves the browser recorder page and a terminal chat for the same pipeline.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JxsueMd16/mad-ia/internal/app"
	"github.com/JxsueMd16/mad-ia/internal/config"
	"github.com/JxsueMd16/mad-ia/internal/log"
)

var (
	configPath string
	envFile    string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "madia",
		Short: "Spanish voice assistant with tool use",
		Long: `MAD-IA transcribes spoken Spanish, answers through a language model
that can open websites, calculate, tell the time and check the weather,
and speaks the answer back.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("MADIA_CONFIG"), "Path to a TOML config file (env MADIA_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(toolsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// load reads settings and initializes the global logger.
func load() (*config.Settings, error) {
	s, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		s.Log.Level = logLevel
	}
	log.Init(s.Log.Level, s.Log.Format)
	return s, nil
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the recorder page and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load()
			if err != nil {
				return err
			}
			if addr != "" {
				s.Server.Addr = addr
			}

			a, err := app.New(s, app.WithLogger(log.L()))
			if err != nil {
				return err
			}
			defer a.Shutdown()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return a.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides config)")
	return cmd
}

func chatCmd() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant by typing",
		Long: `Start an interactive text session. Each line is handled like a
transcribed utterance; tools run for real. Type "reset" to forget the
conversation or "exit" to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load()
			if err != nil {
				return err
			}

			a, err := app.New(s, app.WithLogger(log.L()), app.WithoutEvents())
			if err != nil {
				return err
			}
			defer a.Shutdown()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return chat(ctx, a, session, cmd)
		},
	}

	cmd.Flags().StringVar(&session, "session", "terminal", "Session key for conversation history")
	return cmd
}

func chat(ctx context.Context, a *app.App, session string, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	pipeline := a.Pipeline()

	fmt.Fprint(out, "tú> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			fmt.Fprint(out, "tú> ")
			continue
		case "exit", "salir":
			return nil
		case "reset":
			if err := pipeline.Reset(ctx, session); err != nil {
				return err
			}
			fmt.Fprintln(out, "(conversación reiniciada)")
			fmt.Fprint(out, "tú> ")
			continue
		}

		reply, err := pipeline.HandleText(ctx, session, line)
		if err != nil {
			return err
		}
		if len(reply.Tools) > 0 {
			fmt.Fprintf(out, "[%s]\n", strings.Join(reply.Tools, ", "))
		}
		fmt.Fprintf(out, "mad-ia> %s\n", reply.Text)
		if reply.File != nil {
			fmt.Fprintf(out, "        (%s)\n", *reply.File)
		}

		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "tú> ")
	}
	return scanner.Err()
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool declarations sent to the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load()
			if err != nil {
				return err
			}

			a, err := app.New(s, app.WithLogger(log.L()))
			if err != nil {
				return err
			}
			defer a.Shutdown()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.Registry().Declarations())
		},
	}
}
