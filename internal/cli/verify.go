package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/scoring"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/types"
	"github.com/brianfmorissette/chatgpt-champion/pkg/logger"
)

// scoreTolerance absorbs float formatting differences over JSON.
const scoreTolerance = 1e-6

// VerifyConfig holds the target server and request settings.
type VerifyConfig struct {
	BaseURL string
	TopN    int
	Workers int
	Timeout time.Duration
}

// Check is the outcome of comparing one leaderboard row.
type Check struct {
	Rank     int
	Name     string
	Local    float64
	Remote   float64
	RankSeen int // rank reported by GET /rank/{name}
	Problem  string
}

// OK reports whether the row agreed.
func (c Check) OK() bool { return c.Problem == "" }

func newVerifyCommand(o *Options) *cobra.Command {
	cfg := VerifyConfig{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare a running server's leaderboard with one computed from --file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.TopN < 1 || cfg.Workers < 1 {
				return fmt.Errorf("%w: --top and --workers must be at least 1", ErrInvalidFlag)
			}
			checks, err := Verify(cmd.Context(), o, cfg)
			fmt.Fprintln(cmd.OutOrStdout(), RenderChecks(checks))
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the server")
	f.IntVarP(&cfg.TopN, "top", "n", defaultTop, "number of leaderboard rows to compare")
	f.IntVar(&cfg.Workers, "workers", 4, "concurrent /rank requests")
	f.DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "HTTP request timeout")
	return cmd
}

// Verify fetches the top rows from the server using o's weights, checks each
// against the local computation and against GET /rank/{name}. It returns
// ErrMismatch when any row disagrees.
func Verify(ctx context.Context, o *Options, cfg VerifyConfig) ([]Check, error) {
	log := logger.Named("verify")

	svc, err := o.openService(ctx, cfg.TopN)
	if err != nil {
		return nil, err
	}
	defer svc.Stop()
	local, err := svc.TopN(ctx, cfg.TopN)
	if err != nil {
		return nil, err
	}

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	var remote []types.Entry
	if err := client.getJSON(ctx, "/leaderboard?"+leaderboardQuery(cfg.TopN, o.Weights), &remote); err != nil {
		return nil, err
	}
	log.Info(ctx, "fetched leaderboard", logger.Int("local", len(local)), logger.Int("remote", len(remote)))

	n := max(len(local), len(remote))
	checks := make([]Check, n)
	for i := range n {
		checks[i] = compare(i, local, remote)
	}

	// /rank serves the active weights, so only cross-check it when they match.
	var active types.Weights
	if err := client.getJSON(ctx, "/weights", &active); err != nil {
		return checks, err
	}
	if active.Domain() == o.Weights {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Workers)
		for i := range checks {
			if i >= len(remote) {
				break
			}
			g.Go(func() error {
				var e types.Entry
				if err := client.getJSON(gctx, "/rank/"+url.PathEscape(remote[i].Name), &e); err != nil {
					checks[i].Problem = appendProblem(checks[i].Problem, err.Error())
					return nil
				}
				checks[i].RankSeen = e.Rank
				if e.Rank != remote[i].Rank {
					checks[i].Problem = appendProblem(checks[i].Problem,
						fmt.Sprintf("/rank says #%d", e.Rank))
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return checks, err
		}
	} else {
		log.Warn(ctx, "server weights differ; skipping /rank cross-check", logger.Any("server", active))
	}

	failed := 0
	for _, c := range checks {
		if !c.OK() {
			failed++
		}
	}
	if failed > 0 {
		return checks, fmt.Errorf("%w: %d of %d rows disagree", ErrMismatch, failed, len(checks))
	}
	return checks, nil
}

func compare(i int, local, remote []types.Entry) Check {
	switch {
	case i >= len(remote):
		return Check{Rank: local[i].Rank, Name: local[i].Name, Local: local[i].AvgChampionScore, Problem: "missing on server"}
	case i >= len(local):
		return Check{Rank: remote[i].Rank, Name: remote[i].Name, Remote: remote[i].AvgChampionScore, Problem: "missing locally"}
	}
	l, r := local[i], remote[i]
	c := Check{Rank: l.Rank, Name: l.Name, Local: l.AvgChampionScore, Remote: r.AvgChampionScore}
	if l.Name != r.Name || l.Email != r.Email || l.Company != r.Company {
		c.Problem = appendProblem(c.Problem, "server has "+r.Name)
	}
	if l.Rank != r.Rank {
		c.Problem = appendProblem(c.Problem, fmt.Sprintf("server rank #%d", r.Rank))
	}
	if math.Abs(l.AvgChampionScore-r.AvgChampionScore) > scoreTolerance {
		c.Problem = appendProblem(c.Problem, "score differs")
	}
	return c
}

func appendProblem(have, add string) string {
	if have == "" {
		return add
	}
	return have + "; " + add
}

func leaderboardQuery(n int, w scoring.Weights) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(n))
	q.Set("messages", strconv.FormatFloat(w.Messages, 'f', -1, 64))
	q.Set("models", strconv.FormatFloat(w.Models, 'f', -1, 64))
	q.Set("gpts", strconv.FormatFloat(w.GPTs, 'f', -1, 64))
	q.Set("projects", strconv.FormatFloat(w.Projects, 'f', -1, 64))
	q.Set("tools", strconv.FormatFloat(w.Tools, 'f', -1, 64))
	return q.Encode()
}

// RenderChecks draws the comparison as a table.
func RenderChecks(checks []Check) string {
	if len(checks) == 0 {
		return helpStyle.Render("Nothing to compare")
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("RANK", "NAME", "LOCAL", "SERVER", "RESULT").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow || row >= len(checks):
				return headerStyle
			case col == 4 && checks[row].OK():
				return cellStyle.Foreground(okStyle.GetForeground())
			case col == 4:
				return cellStyle.Foreground(failStyle.GetForeground())
			default:
				return cellStyle
			}
		})
	for _, c := range checks {
		result := "ok"
		if !c.OK() {
			result = c.Problem
		}
		t.Row(strconv.Itoa(c.Rank), c.Name,
			strconv.FormatFloat(c.Local, 'f', 4, 64),
			strconv.FormatFloat(c.Remote, 'f', 4, 64),
			result)
	}
	return t.Render()
}

// httpClient wraps http.Client with the server base URL.
type httpClient struct {
	base   string
	client *http.Client
}

func newHTTPClient(base string, timeout time.Duration) *httpClient {
	return &httpClient{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// getJSON GETs path and decodes a 200 response into v.
func (c *httpClient) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("GET %s: read body: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s: %d %s", ErrUnexpectedStatus, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}
