package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jyotishdesk/backoffice/config"
	"github.com/jyotishdesk/backoffice/internal/domain"
	"github.com/jyotishdesk/backoffice/internal/export"
	"github.com/jyotishdesk/backoffice/internal/resource"
)

var (
	exportFormat   string
	exportOperator string
	exportOut      string
	exportSearch   string
)

// exportFunc writes a whole collection to w.
type exportFunc func(ctx context.Context, cfg *config.AppConfig, ts resource.TokenSource, w io.Writer) error

func exporterOf[T any](name string) exportFunc {
	return func(ctx context.Context, cfg *config.AppConfig, ts resource.TokenSource, w io.Writer) error {
		client := resource.NewClient[T](name, cfg.Backend.BaseURL, domain.ResourcePaths[name],
			resource.WithTimeout(cfg.BackendTimeout()),
			resource.WithTokenSource(ts))
		rows, err := export.CollectAll[T](ctx, client, exportSearch, 100)
		if err != nil {
			return err
		}
		return export.Write(w, exportFormat, name, rows)
	}
}

var exporters = map[string]exportFunc{
	domain.ResRashis:          exporterOf[domain.Rashi](domain.ResRashis),
	domain.ResYogs:            exporterOf[domain.Yog](domain.ResYogs),
	domain.ResRajyogs:         exporterOf[domain.Rajyog](domain.ResRajyogs),
	domain.ResYearPredictions: exporterOf[domain.YearPrediction](domain.ResYearPredictions),
	domain.ResVastuEntrances:  exporterOf[domain.VastuEntrance](domain.ResVastuEntrances),
	domain.ResProducts:        exporterOf[domain.Product](domain.ResProducts),
	domain.ResLessons:         exporterOf[domain.Lesson](domain.ResLessons),
	domain.ResAnalytics:       exporterOf[domain.UserAnalytics](domain.ResAnalytics),
}

func exportNames() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// exportCmd writes a collection as CSV or XLSX
var exportCmd = &cobra.Command{
	Use:       "export [resource]",
	Short:     "Export a resource collection as CSV or XLSX",
	Long:      "Fetches every page of a collection with an operator's stored token.\n\nResources: " + strings.Join(exportNames(), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: exportNames(),
	RunE:      runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", export.FormatCSV, "csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOperator, "operator", "o", "", "operator whose token is used")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&exportSearch, "search", "", "only rows matching the search term")
	_ = exportCmd.MarkFlagRequired("operator")
}

func runExport(cmd *cobra.Command, args []string) error {
	run, ok := exporters[args[0]]
	if !ok {
		return fmt.Errorf("unknown resource %q, expected one of %s", args[0], strings.Join(exportNames(), ", "))
	}
	exportFormat = strings.ToLower(exportFormat)
	if exportFormat != export.FormatCSV && exportFormat != export.FormatXLSX {
		return fmt.Errorf("format must be csv or xlsx")
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	tokens, err := openTokens(cfg)
	if err != nil {
		return err
	}
	defer tokens.Close()
	if _, found, err := tokens.Get(exportOperator); err != nil {
		return err
	} else if !found {
		return fmt.Errorf("no token stored for %s, run: backoffice token set --operator %s <token>", exportOperator, exportOperator)
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return run(cmd.Context(), cfg, tokens.Source(exportOperator), w)
}
