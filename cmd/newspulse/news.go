package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/newspulse/internal/news"
	"github.com/RobinCoderZhao/newspulse/internal/render"
	"github.com/RobinCoderZhao/newspulse/internal/timeline"
)

const commandTimeout = 90 * time.Second

func aggregateCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate <topic>",
		Short: "Fetch a topic from every source and remove duplicates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			a, err := newApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			topic := strings.Join(args, " ")
			items, err := a.aggregator.AggregateTopic(ctx, topic)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{"topic": topic, "articles": items})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📰 %d articles for %q\n\n", len(items), topic)
			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
}

func headlinesCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "headlines [query]",
		Short: "Show top headlines, or search them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			a, err := newApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			items := a.headlines.GetOrFetch(ctx, strings.Join(args, " "))
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), items)
			}
			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
}

func timelineCmd(opts *globalOpts) *cobra.Command {
	var pngPath string

	cmd := &cobra.Command{
		Use:   "timeline <topic>",
		Short: "Build a dated timeline for a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			a, err := newApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			topic := strings.Join(args, " ")
			items, err := a.aggregator.AggregateTopic(ctx, topic)
			if err != nil {
				return err
			}
			res, err := a.timeline.Synthesize(ctx, topic, items)
			if err != nil {
				return err
			}

			if pngPath != "" {
				if err := render.RenderTimelinePNG(topic, res.Events, pngPath); err != nil {
					return err
				}
				a.logger.Info("timeline image written", "path", pngPath, "events", len(res.Events))
			}

			if opts.jsonOut {
				out := map[string]any{"topic": topic, "timeline": res.Events}
				if res.Fallback() {
					out["message"] = timeline.FallbackMessage
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			printTimeline(cmd.OutOrStdout(), topic, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&pngPath, "png", "", "also render the timeline to this PNG file")
	return cmd
}

func askCmd(opts *globalOpts) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the latest headlines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			a, err := newApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			ans, err := a.assistant().Ask(ctx, sessionID, "", strings.Join(args, " "))
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), ans)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ans.Response)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "chat session id")
	return cmd
}

func printItems(w io.Writer, items []news.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "⚠️  No news found.")
		return
	}
	for i, it := range items {
		fmt.Fprintf(w, "%2d. %s\n", i+1, it.Title)
		if it.SourceName != "" || it.PublishedAt != "" {
			fmt.Fprintf(w, "    %s %s\n", it.SourceName, it.PublishedAt)
		}
		if it.URL != "" {
			fmt.Fprintf(w, "    %s\n", it.URL)
		}
	}
}

func printTimeline(w io.Writer, topic string, res timeline.Result) {
	fmt.Fprintf(w, "🕒 Timeline: %s\n", topic)
	if res.Fallback() {
		fmt.Fprintf(w, "   (%s)\n", timeline.FallbackMessage)
	}
	fmt.Fprintln(w)
	if len(res.Events) == 0 {
		fmt.Fprintln(w, "⚠️  No news found for this topic.")
		return
	}
	for _, ev := range res.Events {
		fmt.Fprintf(w, "%s  %s\n", ev.Date, ev.Summary)
		for _, src := range ev.Sources {
			fmt.Fprintf(w, "            ↳ %s %s\n", src.Name, src.URL)
		}
	}
}
