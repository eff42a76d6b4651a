package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/ingest"
	"github.com/brianfmorissette/chatgpt-champion/pkg/logger"
)

// GenerateConfig controls synthetic export generation.
type GenerateConfig struct {
	Users   int
	Weeks   int
	Seed    uint64
	Workers int
	End     time.Time // period_end of the last week
}

// tier describes a population of users with similar habits.
type tier struct {
	name        string
	activeProb  float64 // chance a given week has any messages
	msgMin      float64
	msgRange    float64
	gptProb     float64
	projectRate float64
	maxModels   int
	maxTools    int
}

var tiers = []tier{
	{name: "elite", activeProb: 0.95, msgMin: 250, msgRange: 250, gptProb: 0.9, projectRate: 3, maxModels: 6, maxTools: 5},
	{name: "high", activeProb: 0.85, msgMin: 120, msgRange: 130, gptProb: 0.6, projectRate: 1.5, maxModels: 4, maxTools: 4},
	{name: "average", activeProb: 0.7, msgMin: 30, msgRange: 90, gptProb: 0.3, projectRate: 0.5, maxModels: 3, maxTools: 2},
	{name: "low", activeProb: 0.4, msgMin: 1, msgRange: 30, gptProb: 0.1, projectRate: 0.1, maxModels: 2, maxTools: 1},
	{name: "dormant", activeProb: 0.1, msgMin: 1, msgRange: 5, gptProb: 0, projectRate: 0, maxModels: 1, maxTools: 1},
}

var (
	modelNames = []string{"gpt-4o", "gpt-4o-mini", "o3", "o4-mini", "gpt-4.1", "gpt-5"}
	toolNames  = []string{"canvas", "web_search", "code_interpreter", "image_gen", "file_search"}
	companies  = []string{"Acme", "Globex", "Initech", "Umbrella"}
	orgUnits   = []string{"R&D", "Ops", "Sales", "Finance", ""}
)

func newGenerateCommand() *cobra.Command {
	cfg := GenerateConfig{Workers: runtime.NumCPU()}
	var out string
	var end string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic weekly export for demos and load tests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Users < 1 || cfg.Weeks < 1 {
				return fmt.Errorf("%w: --users and --weeks must be at least 1", ErrInvalidFlag)
			}
			endTime, err := ingest.ParsePeriod(end)
			if err != nil {
				return err
			}
			cfg.End = endTime

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			rows, err := Generate(cmd.Context(), cfg, w)
			if err != nil {
				return err
			}
			logger.Get().Info(cmd.Context(), "generated export", logger.Int("users", cfg.Users), logger.Int("rows", rows))
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&cfg.Users, "users", 50, "number of users")
	f.IntVar(&cfg.Weeks, "weeks", 12, "number of weekly periods")
	f.Uint64Var(&cfg.Seed, "seed", 1, "random seed; the same seed gives the same export")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of concurrent generators")
	f.StringVar(&end, "end", time.Now().UTC().Format("2006-01-02"), "period_end of the last week")
	f.StringVarP(&out, "out", "o", "-", "output CSV file, - for stdout")
	return cmd
}

// Generate writes a header plus cfg.Users*cfg.Weeks rows in weekly export
// format to w and returns the number of data rows.
func Generate(ctx context.Context, cfg GenerateConfig, w io.Writer) (int, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	perUser := make([][][]string, cfg.Users)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range cfg.Users {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perUser[i] = generateUser(cfg, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("generate: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ingest.Columns); err != nil {
		return 0, err
	}
	n := 0
	for _, rows := range perUser {
		if err := cw.WriteAll(rows); err != nil {
			return n, err
		}
		n += len(rows)
	}
	cw.Flush()
	return n, cw.Error()
}

// generateUser draws one user's weekly rows from a per-user stream so the
// output does not depend on worker scheduling.
func generateUser(cfg GenerateConfig, i int) [][]string {
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
	t := tiers[rng.IntN(len(tiers))]
	name := fmt.Sprintf("User %03d", i+1)
	email := fmt.Sprintf("user%03d@example.com", i+1)
	company := companies[rng.IntN(len(companies))]
	unit := orgUnits[rng.IntN(len(orgUnits))]

	rows := make([][]string, 0, cfg.Weeks)
	for wk := range cfg.Weeks {
		period := cfg.End.AddDate(0, 0, -7*(cfg.Weeks-1-wk))
		var msgs, gpts, projects float64
		models, tools := map[string]float64{}, map[string]float64{}
		if rng.Float64() < t.activeProb {
			msgs = float64(int(t.msgMin + rng.Float64()*t.msgRange))
			if rng.Float64() < t.gptProb {
				gpts = float64(rng.IntN(int(msgs)/4 + 1))
			}
			projects = float64(int(rng.ExpFloat64() * t.projectRate))
			spread(rng, models, modelNames, 1+rng.IntN(t.maxModels), msgs)
			if rng.Float64() < 0.7 {
				spread(rng, tools, toolNames, 1+rng.IntN(t.maxTools), msgs/5+1)
			}
		}
		rows = append(rows, []string{
			name, email, company, unit,
			period.Format("2006-01-02"),
			strconv.FormatFloat(msgs, 'f', -1, 64),
			strconv.FormatFloat(gpts, 'f', -1, 64),
			strconv.FormatFloat(projects, 'f', -1, 64),
			pythonDict(models),
			pythonDict(tools),
		})
	}
	return rows
}

// spread distributes total messages over k distinct names.
func spread(rng *rand.Rand, into map[string]float64, names []string, k int, total float64) {
	k = min(k, len(names))
	perm := rng.Perm(len(names))[:k]
	share := total / float64(k)
	for _, idx := range perm {
		into[names[idx]] = float64(int(share)) + 1
	}
}

// pythonDict renders m the way the upstream export does: single-quoted keys.
func pythonDict(m map[string]float64) string {
	if len(m) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("'%s': %s", k, strconv.FormatFloat(m[k], 'f', -1, 64))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
