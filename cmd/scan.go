package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"melodex/config"
	"melodex/core/library"
	"melodex/db"
	"melodex/model"
	"melodex/repository"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the music library once and print the report",
	Long:  `Walk the configured library directory, import new tracks into the catalog and print the resulting scan report as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.DB.Close()

		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database with GORM: %v", err)
		}
		defer db.CloseGormDB()

		if err := db.InitDB(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}

		scanner := library.NewScanner(
			cfg,
			repository.NewGormArtistRepository(db.GormDB),
			repository.NewMySQLTrackRepository(db.DB),
		)

		report := scanner.Scan(context.Background())
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode scan report: %v", err)
		}
		fmt.Println(string(out))

		if report.Status != model.ScanStatusSuccess {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
