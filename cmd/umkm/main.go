package main

import (
	"log"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "umkm",
		Short: "UMKM back-office: catalog, customers, orders and reports",
	}

	rootCmd.AddCommand(
		serveCommand(),
		migrateCommand(),
		migrateCreateCommand(),
		seedCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
