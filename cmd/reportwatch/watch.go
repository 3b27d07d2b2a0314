package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dkoosis/reportwatch/internal/config"
	"github.com/dkoosis/reportwatch/pkg/render"
)

func newWatchCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [flags] [-- command [args...]]",
		Short: "Watch for reports while a build runs",
		Long: `Watch the configured report locations and parse reports as they appear.

With a command after --, the command is run and watching ends when it exits;
the exit code is the command's when it fails. Without one, watching ends on
interrupt.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var child []string
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				child = args[dash:]
			} else if len(args) > 0 {
				return fmt.Errorf("unexpected arguments %q; put the build command after --", args)
			}
			cfg, err := g.resolve()
			if err != nil {
				return err
			}
			return runWatch(cmd, cfg, child)
		},
	}
}

func runWatch(cmd *cobra.Command, cfg *config.ResolvedConfig, child []string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	log := newLogger(stderr, cfg)

	s, renderer, err := newSession(cfg, stdout, log)
	if err != nil {
		return err
	}

	// The session outlives an interrupt so that the final scan still runs.
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(cmd.Context()))
	defer cancel()
	if err := s.Start(sessionCtx); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	childCode := 0
	if len(child) > 0 {
		childCode = runChild(sigCtx, child, cfg.Format, cmd)
	} else {
		<-sigCtx.Done()
	}
	stop()

	sum, err := s.Finish(sessionCtx)
	if ferr := renderer.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}
	if childCode != 0 {
		return exitError{code: childCode}
	}
	if code := exitCode(sum); code != 0 {
		return exitError{code: code}
	}
	return nil
}

// runChild runs the build command and returns its exit code. Its output
// goes to stdout only when stdout carries terminal output.
func runChild(ctx context.Context, argv []string, format string, cmd *cobra.Command) int {
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Stdin = os.Stdin
	c.Stdout = cmd.ErrOrStderr()
	if format == render.FormatTerminal {
		c.Stdout = cmd.OutOrStdout()
	}
	c.Stderr = cmd.ErrOrStderr()

	err := c.Run()
	var ee *exec.ExitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ee):
		return max(ee.ExitCode(), 1)
	default:
		fmt.Fprintf(cmd.ErrOrStderr(), "reportwatch: %v\n", err)
		return 127
	}
}

func newScanCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Parse the reports that exist now and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.resolve()
			if err != nil {
				return err
			}
			cfg.ParseOutOfDate = true
			log := newLogger(cmd.ErrOrStderr(), cfg)
			s, renderer, err := newSession(cfg, cmd.OutOrStdout(), log)
			if err != nil {
				return err
			}
			if err := s.Start(cmd.Context()); err != nil {
				return err
			}
			sum, err := s.Finish(cmd.Context())
			if ferr := renderer.Flush(); err == nil {
				err = ferr
			}
			if err != nil {
				return err
			}
			if code := exitCode(sum); code != 0 {
				return exitError{code: code}
			}
			return nil
		},
	}
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the supported report types",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, t := range newRegistry(nil).Types() {
				desc := t.Description
				if t.AliasOf != "" {
					desc = "alias of " + t.AliasOf
				}
				fmt.Fprintf(out, "%-12s %-14s %s\n", t.Type, t.Stage, desc)
			}
		},
	}
}
