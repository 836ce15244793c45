package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amanullahtanweer/unibot/internal/classify"
	"github.com/amanullahtanweer/unibot/internal/config"
	"github.com/amanullahtanweer/unibot/internal/dataset"
	"github.com/amanullahtanweer/unibot/internal/events"
	"github.com/amanullahtanweer/unibot/internal/flow"
	"github.com/amanullahtanweer/unibot/internal/server"
	"github.com/samber/do"
	"github.com/spf13/cobra"
)

func newChatCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := do.MustInvoke[*config.Config](app.injector)
			assistant, err := do.Invoke[*flow.Assistant](app.injector)
			if err != nil {
				return err
			}
			rec, err := do.Invoke[*Recording](app.injector)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			color := app.interactive()
			term := NewTerminal(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), color)
			defer term.Close()

			engine := flow.NewEngine(term, assistant, flowOptions(cfg))
			engine.SetRecorder(flow.NewRecorder(rec.Options, term.ID(), time.Now()))

			err = engine.Run(ctx)
			if color {
				fmt.Fprintln(cmd.OutOrStdout(), palette{color: true}.render(styleDim, engine.Metrics().Summary()))
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve chat sessions over websockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := do.Invoke[*server.Server](app.injector)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			select {
			case <-ctx.Done():
				srv.Stop()
				return <-errCh
			case err := <-errCh:
				srv.Stop()
				return err
			}
		},
	}
}

func newClassifyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>",
		Short: "Show which topic a text routes to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := do.Invoke[*flow.Assistant](app.injector)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			res := a.Classifier.Score(text)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "topic: %s\n", a.Classifier.Classify(text))
			fmt.Fprintf(out, "scored: %s (confidence %.2f)\n", res.Topic, res.Confidence)
			hits := make([]string, len(classify.Topics))
			for i, t := range classify.Topics {
				hits[i] = fmt.Sprintf("%s:%d", t, res.Hits[t])
			}
			fmt.Fprintf(out, "hits: %s\n", strings.Join(hits, ", "))
			return nil
		},
	}
}

func newEventsCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List catalog events, soonest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := do.Invoke[*dataset.Catalog](app.injector)
			if err != nil {
				return err
			}
			p := palette{color: app.interactive()}
			out := cmd.OutOrStdout()

			keys := events.SortKeys(catalog.Events)
			if limit > 0 && limit < len(keys) {
				keys = keys[:limit]
			}
			fmt.Fprintln(out, p.render(styleHeader, fmt.Sprintf("%d events", len(keys))))
			for i, k := range keys {
				line := fmt.Sprintf("%3d. %s", i+1, k.Label)
				if !k.Dated() {
					line = p.render(styleDim, line+" (no date)")
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many events (0 for all)")
	return cmd
}

func newRecommendCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend a sport or an association from a description",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "sport <description>",
			Short: "Recommend a catalog sport",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := do.Invoke[*flow.Assistant](app.injector)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), a.Sports.Recommend(a.Catalog.Sports, strings.Join(args, " ")))
				return nil
			},
		},
		&cobra.Command{
			Use:   "association <description>",
			Short: "Recommend a catalog association",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := do.Invoke[*flow.Assistant](app.injector)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), a.Associations.Recommend(a.Catalog.Associations, strings.Join(args, " ")))
				return nil
			},
		},
	)
	return cmd
}

func newDatasetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage the catalog dataset",
	}

	var from, to, table string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a CSV catalog into a SQLite table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if from == "" {
				from = do.MustInvoke[*config.Config](app.injector).Dataset.Path
			}
			c, err := dataset.LoadCSV(from)
			if err != nil {
				return err
			}
			if err := dataset.WriteSQLite(to, table, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d sports, %d associations, %d events into %s (table %s)\n",
				len(c.Sports), len(c.Associations), len(c.Events), to, table)
			return nil
		},
	}
	importCmd.Flags().StringVar(&from, "from", "", "CSV file (default dataset.path)")
	importCmd.Flags().StringVar(&to, "to", "", "SQLite database to write")
	importCmd.Flags().StringVar(&table, "table", dataset.DefaultTable, "table to replace")
	_ = importCmd.MarkFlagRequired("to")

	cmd.AddCommand(importCmd)
	return cmd
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			v := app.Version
			if v == "" {
				v = "dev"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unibot %s\n", v)
		},
	}
}
