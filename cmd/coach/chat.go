package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the coach in the terminal",
		Long: `Start an interactive coaching session. Commands:
  /state    print the session state
  /summary  generate and store a session summary
  /export   print the conversation export
  /reset    delete the session and start over
  /quit     leave`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			env, err := prepareRuntimeEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			return runChat(ctx, env, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runChat(ctx context.Context, env *runtimeEnv, in io.Reader, out io.Writer) error {
	user := env.Coach.ResolveUserID(userID)
	fmt.Fprintf(out, "%s is ready (user: %s). Type /quit to leave.\n", env.Config.Coach.Name, user)

	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "you> ")
		if !s.Scan() {
			break
		}
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := runChatCommand(ctx, env, user, line, out)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		res, err := env.Coach.HandleTurn(ctx, user, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		fmt.Fprintf(out, "coach> %s\n\n", res.Reply)
	}
	return s.Err()
}

func runChatCommand(ctx context.Context, env *runtimeEnv, user, line string, out io.Writer) (bool, error) {
	switch strings.Fields(line)[0] {
	case "/quit", "/exit":
		return true, nil
	case "/reset":
		if err := env.Coach.Reset(ctx, user); err != nil {
			return false, err
		}
		fmt.Fprintln(out, "session cleared")
	case "/state":
		st, err := env.Coach.State(ctx, user)
		if err != nil {
			return false, err
		}
		return false, writeJSON(out, st)
	case "/export":
		exp, err := env.Coach.Export(ctx, user)
		if err != nil {
			return false, err
		}
		return false, writeJSON(out, exp)
	case "/summary":
		summary, _, err := env.Coach.Summarize(ctx, user)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, summary.SummaryText)
	default:
		fmt.Fprintf(out, "unknown command %s\n", line)
	}
	return false, nil
}
