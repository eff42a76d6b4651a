package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/types"
)

const defaultTop = 10

func newLeaderboardCommand(o *Options) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the top champions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if top < 1 {
				return fmt.Errorf("%w: --top must be at least 1, got %d", ErrInvalidFlag, top)
			}
			ctx := cmd.Context()
			svc, err := o.openService(ctx, top)
			if err != nil {
				return err
			}
			defer svc.Stop()

			entries, err := svc.TopN(ctx, top)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render(fmt.Sprintf("Top %d ChatGPT champions", top)))
			fmt.Fprintln(cmd.OutOrStdout(), RenderLeaderboard(entries))
			return nil
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", defaultTop, "number of champions to show")
	return cmd
}

// RenderLeaderboard draws entries as a bordered table.
func RenderLeaderboard(entries []types.Entry) string {
	if len(entries) == 0 {
		return helpStyle.Render("No active users in the dataset")
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("RANK", "NAME", "EMAIL", "COMPANY", "AVG SCORE", "STABILITY", "WEEKS", "MESSAGES", "LAST ACTIVE").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0 || col >= 4:
				return numberStyle
			default:
				return cellStyle
			}
		})
	for _, e := range entries {
		t.Row(
			strconv.Itoa(e.Rank),
			e.Name,
			e.Email,
			e.Company,
			strconv.FormatFloat(e.AvgChampionScore, 'f', 2, 64),
			strconv.FormatFloat(e.ScoreStability, 'f', 2, 64),
			strconv.Itoa(e.ActiveWeeks),
			strconv.FormatFloat(e.TotalMessages, 'f', 0, 64),
			e.LastActive.Format("2006-01-02"),
		)
	}
	return t.Render()
}
