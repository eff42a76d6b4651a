package cli

import (
	"errors"
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/brianfmorissette/chatgpt-champion/internal/adapters/repository"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/types"
)

const (
	defaultChartWidth  = 60
	defaultChartHeight = 10
	minChartWidth      = 20
	minChartHeight     = 3
)

func newTrendCommand(o *Options) *cobra.Command {
	var width, height int
	cmd := &cobra.Command{
		Use:   "trend <name>",
		Short: "Chart one user's weekly champion score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := o.openService(ctx, defaultTop)
			if err != nil {
				return err
			}
			defer svc.Stop()

			points, err := svc.Trend(ctx, args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			// Users whose weeks all have zero messages have a series but no rank.
			entry, err := svc.Rank(ctx, args[0])
			switch {
			case errors.Is(err, repository.ErrNotFound):
				fmt.Fprintln(out, helpStyle.Render(args[0]+": no active weeks, not ranked"))
			case err != nil:
				return fmt.Errorf("%s: %w", args[0], err)
			default:
				fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s  rank #%d  avg %.2f  stability %.2f  weeks %d",
					entry.Name, entry.Rank, entry.AvgChampionScore, entry.ScoreStability, entry.ActiveWeeks)))
			}
			fmt.Fprintln(out, RenderTrend(points, width, height))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", defaultChartWidth, "chart width in columns")
	cmd.Flags().IntVar(&height, "height", defaultChartHeight, "chart height in rows")
	return cmd
}

// RenderTrend plots champion scores oldest first.
func RenderTrend(points []types.TrendPoint, width, height int) string {
	if len(points) == 0 {
		return helpStyle.Render("No data available")
	}
	width = max(width, minChartWidth)
	height = max(height, minChartHeight)

	data := make([]float64, len(points))
	for i, p := range points {
		data[i] = p.ChampionScore
	}
	if len(data) == 1 {
		data = append(data, data[0])
	}
	caption := fmt.Sprintf("champion score, %s to %s",
		points[0].PeriodEnd.Format("2006-01-02"), points[len(points)-1].PeriodEnd.Format("2006-01-02"))

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
