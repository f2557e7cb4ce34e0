package cli

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/raysh454/pagefetch/internal/app"
	"github.com/raysh454/pagefetch/internal/compare"
	"github.com/raysh454/pagefetch/internal/webclient"
)

func newDiffCmd(g *globalOptions) *cobra.Command {
	var (
		rf     requestFlags
		keep   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "diff URL",
		Short: "Compare static and rendered markup of a page",
		Long: `Fetch a page once with plain HTTP and once with a headless browser and
print a line diff of the two. Lines prefixed with "+" only exist after
scripts have run.`,
		Args: cobra.ExactArgs(1),
	}
	rf.register(cmd)
	cmd.Flags().IntVar(&keep, "context", 3, "Unchanged lines shown around each change (-1 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print changed chunks as JSON")

	cmd.RunE = g.withApp(func(cmd *cobra.Command, args []string, a *app.Application) error {
		rf.applyDynamic(cmd, &a.Config.Dynamic)
		opts, err := rf.requestOptions(cmd)
		if err != nil {
			return err
		}
		req, err := webclient.NewRequest(args[0], opts...)
		if err != nil {
			return err
		}

		static, err := fetchWith(cmd.Context(), a, "static", req)
		if err != nil {
			return err
		}
		dynamic, err := fetchWith(cmd.Context(), a, "dynamic", req)
		if err != nil {
			return err
		}

		rep := compare.Lines("static", "dynamic", static.Markup(), dynamic.Markup())
		if asJSON {
			out, err := rep.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
		} else {
			fmt.Fprint(cmd.OutOrStdout(), rep.Unified(keep))
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d line(s) added by rendering, %d removed\n", rep.Added, rep.Removed)
		return nil
	})
	return cmd
}

func fetchWith(ctx context.Context, a *app.Application, mode string, req *webclient.Request) (*webclient.Result, error) {
	wc, err := a.NewFetcher(mode)
	if err != nil {
		return nil, err
	}
	res := wc.Fetch(ctx, req)
	if err := res.Err(); err != nil {
		return nil, eris.Wrapf(err, "%s fetch", mode)
	}
	return res, nil
}
