package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/planpress/planpress/internal/client"
	"github.com/planpress/planpress/internal/config"
	"github.com/planpress/planpress/internal/layout"
	pdfutil "github.com/planpress/planpress/internal/pdf"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "planpress: %v\n", err)
		os.Exit(1)
	}
}

var apiURL string

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "planpress",
		Short: "PlanPress document CLI",
		Long: `PlanPress CLI talks to a running PlanPress API server: it lists the available
document templates, walks a template's form step by step, submits the answers
for PDF generation, and polls until the document is ready.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&apiURL, "api", "", "Base URL of the PlanPress API (defaults to PLANPRESS_API_URL)")
	cmd.AddCommand(
		newWizardCmd(),
		newTemplatesCmd(),
		newStatusCmd(),
		newRenderCmd(),
		newRedirectsCmd(),
	)
	return cmd
}

func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	return cfg, nil
}

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the templates the server offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			c := client.New(cfg.APIBaseURL)
			summaries, err := c.ListTemplates(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", client.UserMessage(err))
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Name, s.Description)
			}
			return w.Flush()
		},
	}
}

func newStatusCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "status <document-id>",
		Short: "Show a document's generation status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			c := client.New(cfg.APIBaseURL)
			if watch {
				url, err := client.NewPoller(c, cfg.PollInterval).Wait(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("%s", client.UserMessage(err))
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			}
			doc, err := c.GetStatus(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s", client.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status: %s\n", doc.Status)
			if url, err := client.ResolveURL(doc); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "url: %s\n", url)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll until the document reaches a terminal status")
	return cmd
}

func newRenderCmd() *cobra.Command {
	var layoutPath, outPath, valuesPath string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a layout file to PDF locally, without the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			values := map[string]string{}
			if valuesPath != "" {
				raw, err := os.ReadFile(valuesPath)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(raw, &values); err != nil {
					return fmt.Errorf("parse values: %w", err)
				}
			}
			doc, err := layout.FromFile(layoutPath, values)
			if err != nil {
				return err
			}
			data, err := layout.NewPDFRenderer().Render(cmd.Context(), doc)
			if err != nil {
				return err
			}
			pages, err := pdfutil.Verify(data)
			if err != nil {
				return fmt.Errorf("rendered PDF failed verification: %w", err)
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d pages, %d bytes)\n", outPath, pages, len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&layoutPath, "layout", "", "Path to a layout JSON file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "out.pdf", "Output PDF path")
	cmd.Flags().StringVar(&valuesPath, "values", "", "Optional JSON file with {{placeholder}} values")
	_ = cmd.MarkFlagRequired("layout")
	return cmd
}
