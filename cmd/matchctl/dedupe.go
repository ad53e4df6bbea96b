package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"recipe-matcher/internal/core/catalog"

	"github.com/spf13/cobra"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove duplicate products by case-insensitive product_name",
	Long:  "Groups products by case-insensitive product_name, keeps the entry with an image and the most filled fields, writes the result and prints a report.",
	RunE:  runDedupe,
}

var (
	dedupeIn     string
	dedupeOut    string
	dedupeSample int
)

func init() {
	dedupeCmd.Flags().StringVarP(&dedupeIn, "in", "i", "", "Path to input products JSON file (default from config)")
	dedupeCmd.Flags().StringVarP(&dedupeOut, "out", "o", "", "Path to output file (default: <in dir>/Products Data.deduped.json)")
	dedupeCmd.Flags().IntVar(&dedupeSample, "sample", 5, "Number of duplicate groups to print")

	rootCmd.AddCommand(dedupeCmd)
}

func runDedupe(cmd *cobra.Command, _ []string) error {
	in := dedupeIn
	if in == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		in = cfg.Catalog.ProductsPath
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read products file %s: %w", in, err)
	}

	var records []catalog.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("expected an array of products in %s: %w", in, err)
	}

	report := catalog.Dedupe(records)

	out := dedupeOut
	if out == "" {
		out = filepath.Join(filepath.Dir(in), "Products Data.deduped.json")
	}
	content, err := json.MarshalIndent(report.Products, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal deduplicated products: %w", err)
	}
	if err := os.WriteFile(out, append(content, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Source file: %s\nOutput file: %s\n", in, out)
	saved := len(data) - len(content)
	if saved < 0 {
		saved = 0
	}
	if err := report.WriteSummary(w, dedupeSample); err != nil {
		return err
	}
	fmt.Fprintf(w, "Space saved: %d bytes (~%.2f KB)\n", saved, float64(saved)/1024)
	return nil
}
