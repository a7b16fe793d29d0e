package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"equip-manager/internal/platform/database"
	transfer "equip-manager/internal/transfer/domain"
	"equip-manager/internal/transfer/infrastructure/xlsx"
)

func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply pending migrations or roll back the latest one",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if len(args) == 1 && args[0] == "down" {
				return database.Rollback(cmd.Context(), a.db, a.logger)
			}
			return database.Migrate(cmd.Context(), a.db, a.logger)
		},
	}
}

func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the reference lists into an empty catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.seed(cmd.Context())
			if err != nil {
				return err
			}
			if res.Skipped {
				cmd.Println("reference data already present, nothing inserted")
				return nil
			}
			cmd.Printf("inserted %d reference rows\n", res.Inserted)
			return nil
		},
	}
}

func NewImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "import {equipment|points} FILE",
		Short:     "Import equipment or measurement points from a spreadsheet",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(transfer.EntityEquipment), string(transfer.EntityPoints)},
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := transfer.ParseEntity(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			table, err := xlsx.ReadTable(f)
			if err != nil {
				return err
			}

			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.importer.Import(cmd.Context(), entity, table)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			return nil
		},
	}
}

func NewExportCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:       "export {equipment|points}",
		Short:     "Export equipment or measurement points to a spreadsheet",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(transfer.EntityEquipment), string(transfer.EntityPoints)},
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := transfer.ParseEntity(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = entity.FileName("export")
			}

			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			sheet, err := a.exporter.Export(cmd.Context(), entity)
			if err != nil {
				return err
			}
			body, err := xlsx.WriteSheet(sheet)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			a.logger.Info("Export written", zap.String("file", out), zap.Int("rows", len(sheet.Rows)))
			cmd.Printf("wrote %d rows to %s\n", len(sheet.Rows), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default export_<kind>.xlsx)")
	return cmd
}
