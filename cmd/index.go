package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cazylab/ceclust/internal/annotation"
	"github.com/cazylab/ceclust/internal/errors"
	"github.com/cazylab/ceclust/internal/store"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the structured protein index and cache it as CSV",
	Long: `Query every protein that carries a family with the configured prefix and
links to at least one PDB structure, and write accession plus families to the
index file. 'ceclust run --index-file' can then skip the bulk query.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var (
	flagIndexDB     string
	flagIndexPrefix string
	flagIndexOut    string
)

func init() {
	indexCmd.Flags().StringVar(&flagIndexDB, "db", "", "Annotation database (SQLite path or postgres:// DSN)")
	indexCmd.Flags().StringVar(&flagIndexPrefix, "prefix", "", "Family prefix (default from config)")
	indexCmd.Flags().StringVarP(&flagIndexOut, "out", "o", "", "Output CSV (default index_file from config)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if flagIndexDB != "" {
		cfg.Database = flagIndexDB
	}
	if flagIndexPrefix != "" {
		cfg.FamilyPrefix = flagIndexPrefix
	}
	out := flagIndexOut
	if out == "" {
		out = cfg.IndexFile
	}
	if out == "" {
		return errors.WithHint(errors.New("no index file given"), "pass --out or set index_file in ceclust.yaml")
	}
	if cfg.Database == "" {
		return errors.New("no annotation database configured")
	}

	ctx := cmd.Context()
	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	idx, err := annotation.Build(ctx, st, cfg.FamilyPrefix)
	if err != nil {
		return err
	}
	if err := annotation.WriteFile(out, idx); err != nil {
		return err
	}
	printOK("", fmt.Sprintf("%s structured proteins written to %s", count(idx.Len()), out))
	return nil
}
