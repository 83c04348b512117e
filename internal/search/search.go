// Package search runs web searches through the ddgr command-line client and
// formats the results into a bounded text blob for the model to summarize.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/archan-project/archan/internal/config"
	"github.com/archan-project/archan/internal/runner"
)

// ErrTimeout is returned when the search invocation exceeds its timeout.
var ErrTimeout = errors.New("search timed out")

// shownResults caps how many results are folded into the model context.
const shownResults = 3

// commandRunner is the slice of the process runner the service needs.
type commandRunner interface {
	Run(ctx context.Context, argv []string, timeout time.Duration) (*runner.Result, error)
}

// Service executes search queries via a fixed external invocation.
type Service struct {
	runner commandRunner
	cfg    *config.Config
	log    *zap.Logger
}

// NewService creates a search service backed by the given runner.
func NewService(r commandRunner, cfg *config.Config, log *zap.Logger) *Service {
	if r == nil {
		panic("runner is required")
	}
	if cfg == nil {
		panic("cfg is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{runner: r, cfg: cfg, log: log}
}

// result mirrors one entry of ddgr's --json output.
type result struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	URL      string `json:"url"`
}

// Search runs the query and returns a formatted snippet block. Launch
// failures (ddgr not installed) and timeouts are returned as errors; an
// unparseable result set is reported in the returned text, the way the rest
// of a tool result is, so the session stays usable.
func (s *Service) Search(ctx context.Context, query string) (string, error) {
	argv := []string{
		"ddgr", "--json",
		"-n", strconv.Itoa(s.cfg.Tools.SearchResultCount),
		"--unsafe",
		query,
	}
	timeout := time.Duration(s.cfg.Tools.SearchTimeout) * time.Second

	s.log.Info("running web search", zap.String("query", query))

	res, err := s.runner.Run(ctx, argv, timeout)
	if err != nil {
		return "", err
	}
	if res.TimedOut {
		return "", ErrTimeout
	}
	if res.ExitCode != 0 {
		return fmt.Sprintf("The search for %q failed: %s", query, strings.TrimSpace(res.Stderr)), nil
	}

	return formatResults(query, res.Stdout), nil
}

// formatResults converts ddgr's JSON output into a numbered snippet list,
// capped at shownResults entries.
func formatResults(query, raw string) string {
	var results []result
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &results); err != nil {
		return fmt.Sprintf("Could not parse the search results for %q.", query)
	}
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}

	var sb strings.Builder
	for i, r := range results {
		if i >= shownResults {
			break
		}
		if i > 0 {
			sb.WriteString("\n\n")
		}
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, title)
		if r.Abstract != "" {
			fmt.Fprintf(&sb, "\n   %s", r.Abstract)
		}
		if r.URL != "" {
			fmt.Fprintf(&sb, "\n   %s", r.URL)
		}
	}
	return sb.String()
}
