package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/caselift/internal/config"
	"github.com/nao1215/caselift/internal/crawler"
	"github.com/nao1215/caselift/internal/fetch"
	"github.com/nao1215/caselift/internal/pipeline"
)

// NewLinksCmd creates the links command.
func NewLinksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links <url>",
		Short: "Extract case links from a listing page",
		Long: `Links fetches one listing page and prints every unique absolute link on it,
one per line, in page order. Diagnostics go to stderr so stdout can be piped.

By default only case documents are printed (showdocs/<id>/<id> URLs).

Examples:
  # Case links of one month
  caselift links https://elibrary.judiciary.gov.ph/thebookshelf/docmonth/May/2021/1

  # Save them as the input of 'caselift extract'
  caselift links -o links.txt https://elibrary.judiciary.gov.ph/thebookshelf/docmonth/May/2021/1

  # Every link on the page
  caselift links --all https://elibrary.judiciary.gov.ph/thebookshelf/docmonth/May/2021/1

  # Only PDF links
  caselift links --filter '\.pdf$' https://elibrary.judiciary.gov.ph/thebookshelf/docmonth/May/2021/1`,
		Args: cobra.ExactArgs(1),
		RunE: runLinksCmd,
	}

	cmd.Flags().BoolP("all", "a", false,
		"Return all links instead of case links only")
	cmd.Flags().StringP("filter", "f", "",
		"Case-insensitive regex filter (overrides the default case filter)")
	cmd.Flags().IntP("timeout", "t", int(config.DefaultLinksTimeout/time.Second),
		"Request timeout in seconds")
	cmd.Flags().StringP("output", "o", "",
		"Write the links to this file instead of stdout")

	return cmd
}

// linksOptions holds the resolved links command input.
type linksOptions struct {
	url     string
	all     bool
	filter  string
	output  string
	timeout time.Duration
}

func runLinksCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := linksOptions{url: strings.TrimSpace(args[0])}
	if opts.url == "" {
		return errors.New("no URL provided")
	}
	if opts.all, err = cmd.Flags().GetBool("all"); err != nil {
		return err
	}
	if opts.filter, err = cmd.Flags().GetString("filter"); err != nil {
		return err
	}
	if opts.output, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}

	opts.timeout = cfg.LinksTimeout
	if cmd.Flags().Changed("timeout") {
		seconds, err := cmd.Flags().GetInt("timeout")
		if err != nil {
			return err
		}
		opts.timeout = time.Duration(seconds) * time.Second
	}
	if opts.timeout <= 0 {
		return config.ErrInvalidTimeout
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	fetcher := fetch.New(
		fetch.WithTimeout(opts.timeout),
		fetch.WithMaxAttempts(cfg.LinksAttempts),
		fetch.WithInitialDelay(cfg.LinksDelay),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithLogger(logger),
	)

	return scrapeLinks(ctx, fetcher, cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// scrapeLinks fetches the listing page and writes the filtered links to
// stdout, or to opts.output when set.
func scrapeLinks(ctx context.Context, fetcher pipeline.PageFetcher, cfg *config.Config, opts linksOptions, stdout, stderr io.Writer) error {
	pattern := opts.filter
	if pattern == "" && !opts.all {
		pattern = cfg.CasePattern
	}
	filter, err := crawler.ResolveFilter(opts.all, pattern)
	if err != nil {
		return err
	}

	fmt.Fprintf(stderr, "Fetching links from: %s\n", opts.url)
	if filter != nil {
		fmt.Fprintf(stderr, "Filter pattern: %s\n", pattern)
	}

	resp, err := fetcher.Fetch(ctx, opts.url)
	if err != nil {
		return fmt.Errorf("error fetching page: %w", err)
	}

	links, err := crawler.ExtractLinks(opts.url, bytes.NewReader(resp.Body), filter)
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}

	fmt.Fprintf(stderr, "Found %d unique link(s)\n", len(links))

	if opts.output == "" {
		return pipeline.WriteLinks(stdout, links)
	}

	if dir := filepath.Dir(opts.output); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(opts.output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create links file: %w", err)
	}
	defer f.Close()

	if err := pipeline.WriteLinks(f, links); err != nil {
		return fmt.Errorf("failed to write links file: %w", err)
	}
	fmt.Fprintf(stderr, "Wrote %d link(s) to %s\n", len(links), opts.output)
	return nil
}
