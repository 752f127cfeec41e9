package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// Static hosts serve a SPA build from a plain directory, so deep links need
// a rewrite rule and a fallback page dropped next to the bundle.
const (
	redirectsRule = "/*    /index.html   200\n"

	fallbackPage = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>PlanPress</title>
    <script>
      sessionStorage.redirect = location.href;
    </script>
    <meta http-equiv="refresh" content="0;URL='/'">
  </head>
  <body></body>
</html>
`
)

func newRedirectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redirects <dist-dir>",
		Short: "Write SPA redirect files into a static build directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dist := args[0]
			info, err := os.Stat(dist)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dist)
			}
			if err := os.WriteFile(filepath.Join(dist, "_redirects"), []byte(redirectsRule), 0o644); err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(dist, "404.html"), []byte(fallbackPage), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote _redirects and 404.html into %s\n", dist)
			return nil
		},
	}
}
