package cli

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/raysh454/pagefetch/internal/app"
	"github.com/raysh454/pagefetch/internal/logging"
	"github.com/raysh454/pagefetch/internal/webclient"
)

// requestFlags are shared by fetch and diff.
type requestFlags struct {
	timeout      time.Duration
	headers      []string
	proxy        string
	retries      int
	headless     bool
	waitSelector string
	idleAfter    time.Duration
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Read timeout (static) or readiness timeout (dynamic); 0 uses the config value")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "Request header as 'Name: value' (repeatable)")
	cmd.Flags().StringVar(&f.proxy, "proxy", "", "Proxy URL for static fetches (http, https or socks5)")
	cmd.Flags().IntVar(&f.retries, "retries", 0, "Retries after the first attempt on 500/502/503/504 (static only)")
	cmd.Flags().BoolVar(&f.headless, "headless", true, "Run the browser without a window (dynamic only)")
	cmd.Flags().StringVar(&f.waitSelector, "wait-selector", "", "CSS selector that marks the page as ready (dynamic only)")
	cmd.Flags().DurationVar(&f.idleAfter, "idle-after", 0, "Also wait until the network has been idle this long (dynamic only)")
}

// applyDynamic copies explicitly set browser flags into the config.
func (f *requestFlags) applyDynamic(cmd *cobra.Command, cfg *webclient.DynamicConfig) {
	if cmd.Flags().Changed("headless") {
		cfg.Headless = f.headless
	}
	if cmd.Flags().Changed("wait-selector") {
		cfg.WaitSelector = f.waitSelector
	}
	if cmd.Flags().Changed("idle-after") {
		cfg.IdleAfter = f.idleAfter
	}
}

func (f *requestFlags) requestOptions(cmd *cobra.Command) ([]webclient.RequestOption, error) {
	headers, err := parseHeaders(f.headers)
	if err != nil {
		return nil, err
	}
	opts := []webclient.RequestOption{
		webclient.WithTimeout(f.timeout),
		webclient.WithHeaders(headers),
		webclient.WithProxy(f.proxy),
	}
	if cmd.Flags().Changed("retries") {
		if f.retries < 0 {
			return nil, eris.Errorf("--retries must not be negative, got %d", f.retries)
		}
		opts = append(opts, webclient.WithMaxAttempts(f.retries+1))
	}
	return opts, nil
}

// parseHeaders turns "Name: value" pairs into a header set.
func parseHeaders(raw []string) (http.Header, error) {
	h := http.Header{}
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, eris.Errorf("invalid header %q, want 'Name: value'", kv)
		}
		h.Add(name, strings.TrimSpace(value))
	}
	return h, nil
}

func newFetchCmd(g *globalOptions) *cobra.Command {
	var (
		rf    requestFlags
		mode  string
		out   string
		title bool
	)

	cmd := &cobra.Command{
		Use:   "fetch URL",
		Short: "Fetch a page and print its markup",
		Long: `Fetch a page and print its markup to stdout (or --out).

A summary line goes to stderr. The command exits non-zero when the fetch
fails; the failure kind and message are printed instead of markup.`,
		Example: `  pagefetch fetch https://example.com
  pagefetch fetch --mode dynamic --wait-selector '#app' https://example.com
  pagefetch fetch -H 'Accept-Language: de' --retries 2 --out page.html https://example.com`,
		Args: cobra.ExactArgs(1),
	}
	rf.register(cmd)
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Fetch mode: static or dynamic (default from config)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write markup to this file instead of stdout")
	cmd.Flags().BoolVar(&title, "title", false, "Include the page <title> in the summary")

	cmd.RunE = g.withApp(func(cmd *cobra.Command, args []string, a *app.Application) error {
		rf.applyDynamic(cmd, &a.Config.Dynamic)
		opts, err := rf.requestOptions(cmd)
		if err != nil {
			return err
		}

		wc, err := a.NewFetcher(mode)
		if err != nil {
			return err
		}
		if _, ok := wc.(*webclient.ChromedpClient); ok && rf.proxy != "" {
			a.Logger.Warn("proxy is ignored in dynamic mode", logging.F("proxy", rf.proxy))
		}

		res, err := webclient.FetchURL(cmd.Context(), wc, args[0], opts...)
		if err != nil {
			return err
		}
		if err := res.Err(); err != nil {
			return err
		}

		if out != "" {
			if err := os.WriteFile(out, []byte(res.Markup()), 0o644); err != nil {
				return eris.Wrapf(err, "write %s", out)
			}
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), res.Markup())
		}

		printSummary(cmd, res, title)
		return nil
	})
	return cmd
}

func printSummary(cmd *cobra.Command, res *webclient.Result, withTitle bool) {
	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "fetched %s via %s: %d bytes, %d attempt(s), %s",
		res.URL, res.Backend, len(res.Markup()), res.Attempts, res.Duration.Round(time.Millisecond))
	if res.StatusCode != 0 {
		fmt.Fprintf(w, ", status %d", res.StatusCode)
	}
	if res.FinalURL != "" && res.FinalURL != res.URL {
		fmt.Fprintf(w, ", final url %s", res.FinalURL)
	}
	fmt.Fprintln(w)

	if withTitle {
		doc, err := res.Document()
		if err == nil {
			fmt.Fprintf(w, "title: %s\n", strings.TrimSpace(doc.Find("title").First().Text()))
		}
	}
}
