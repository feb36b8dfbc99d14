package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/bidsync/internal/config"
	"github.com/rpggio/bidsync/internal/domain/board"
	"github.com/rpggio/bidsync/internal/domain/project"
	"github.com/rpggio/bidsync/internal/mcp"
	"github.com/rpggio/bidsync/internal/tab"
	"github.com/spf13/cobra"
)

const sessionTimeout = 30 * time.Minute

// cli carries what PersistentPreRunE prepared for the subcommands.
type cli struct {
	envFile    string
	configPath string

	cfg       config.Config
	logger    *slog.Logger
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	cmd := &cobra.Command{
		Use:           "bidsync",
		Short:         "Project bidding board whose tabs stay in sync through shared storage",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.logCloser != nil {
				return c.logCloser.Close()
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (overrides "+config.ConfigPathEnv+")")

	cmd.AddCommand(
		newServeCmd(c),
		newProjectsCmd(c),
		newBidCmd(c),
		newWatchCmd(c),
	)
	return cmd
}

func (c *cli) setup(cmd *cobra.Command) error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	if c.configPath != "" {
		if err := os.Setenv(config.ConfigPathEnv, c.configPath); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if transport, _ := cmd.Flags().GetString("transport"); transport != "" {
		cfg.Server.Transport = transport
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, closer, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("log file error: %w", err)
	}
	c.cfg, c.logger, c.logCloser = cfg, logger, closer
	return nil
}

// withTab runs fn against a fresh tab and tears everything down afterwards.
func (c *cli) withTab(ctx context.Context, fn func(*App, *tab.Tab) error) error {
	app, err := newApp(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			c.logger.Error("shutdown error", "error", err)
		}
	}()

	t, err := app.OpenTab(ctx)
	if err != nil {
		return err
	}
	return fn(app, t)
}

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over MCP (stdio or streamable HTTP)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if c.cfg.Server.Transport == "http" {
				return c.runHTTP(ctx)
			}
			return c.withTab(ctx, func(_ *App, t *tab.Tab) error {
				return runStdio(ctx, c.logger, newMCPServer(t, c.logger, nil))
			})
		},
	}
	cmd.Flags().String("transport", "", "stdio or http (overrides config)")
	return cmd
}

func newMCPServer(t *tab.Tab, logger *slog.Logger, onSessionEnd func()) *sdkmcp.Server {
	cfg := mcp.Config{TabID: t.ID, Board: t.Board, Logger: logger, OnSessionEnd: onSessionEnd}
	if t.Activity != nil {
		cfg.Activity = t.Activity
	}
	return mcp.NewServer(cfg)
}

func runStdio(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server) error {
	logger.Info("starting stdio transport")
	// Run blocks until stdin closes or ctx is canceled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

// runHTTP gives every MCP client session its own tab on the shared origin.
// The tab closes when its session ends.
func (c *cli) runHTTP(ctx context.Context) error {
	app, err := newApp(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			c.logger.Error("shutdown error", "error", err)
		}
	}()

	handler := mcp.NewHTTPHandler(func(r *http.Request) *sdkmcp.Server {
		t, err := app.OpenTab(context.WithoutCancel(r.Context()))
		if err != nil {
			c.logger.Error("opening tab for session failed", "error", err)
			return nil
		}
		return newMCPServer(t, c.logger, app.tabCloser(t))
	}, sessionTimeout)

	addr := fmt.Sprintf("%s:%d", c.cfg.Server.Host, c.cfg.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.logger.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

func newProjectsCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects with their highest bid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withTab(cmd.Context(), func(_ *App, t *tab.Tab) error {
				views := t.Board.View()
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), views)
				}
				return writeViews(cmd.OutOrStdout(), views)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newBidCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "bid <project-id> <bidder> <amount>",
		Short: "Place a bid as a new tab",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[2], err)
			}
			return c.withTab(cmd.Context(), func(_ *App, t *tab.Tab) error {
				placed, err := t.Board.PlaceBid(cmd.Context(), args[0], args[1], amount)
				if err != nil {
					var verr *board.ValidationError
					if errors.As(err, &verr) {
						return fmt.Errorf("bid rejected: %s", verr.Message)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s bid %.2f on %s at %s\n",
					placed.Bidder, placed.Amount, args[0], placed.Timestamp.Format(time.RFC3339))
				return nil
			})
		},
	}
}

func newWatchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Open a tab and print the board every time it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return c.withTab(ctx, func(_ *App, t *tab.Tab) error {
				out := cmd.OutOrStdout()
				changes := make(chan []project.View, 1)
				cancel := t.Board.OnViewChanged(func(views []project.View) {
					// Keep only the latest view when the printer falls behind.
					select {
					case <-changes:
					default:
					}
					changes <- views
				})
				defer cancel()

				if err := writeViews(out, t.Board.View()); err != nil {
					return err
				}
				for {
					select {
					case <-ctx.Done():
						return nil
					case views := <-changes:
						fmt.Fprintf(out, "\n-- %s --\n", time.Now().Format(time.TimeOnly))
						if err := writeViews(out, views); err != nil {
							return err
						}
					}
				}
			})
		},
	}
}

func writeViews(w io.Writer, views []project.View) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tBIDS\tHIGHEST\tCLOSES")
	for _, v := range views {
		highest := "-"
		if v.HighestBid != nil {
			highest = fmt.Sprintf("%.2f (%s)", v.HighestBid.Amount, v.HighestBid.Bidder)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			v.ID, v.Title, v.Status, len(v.Bids), highest, v.BidClose.Format(time.RFC3339))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
