package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"melodex/config"
	"melodex/db"
	"melodex/model"
	"melodex/repository"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the catalog indexes and the import category",
	Long: `Prepares a fresh deployment: creates the unique indexes the catalog
relies on and the category that imported songs are tagged with. Imports fail
with a configuration error until this has run.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client, database, err := db.ConnectMongo(ctx, cfg)
		if err != nil {
			log.Fatalf("could not connect to MongoDB: %v", err)
		}
		defer db.Disconnect(context.Background(), client)

		if err := db.EnsureIndexes(ctx, database); err != nil {
			log.Fatalf("could not create indexes: %v", err)
		}
		fmt.Println("indexes created")

		categories := repository.NewMongoCategoryRepository(database)
		existing, err := categories.FindByName(ctx, cfg.ImportCategoryName)
		if err != nil {
			log.Fatalf("could not look up import category: %v", err)
		}
		if existing != nil {
			fmt.Printf("import category %q already exists (%s)\n", existing.Name, existing.ID.Hex())
			return
		}

		created, err := categories.Insert(ctx, &model.Category{Name: cfg.ImportCategoryName})
		if err != nil {
			log.Fatalf("could not create import category: %v", err)
		}
		fmt.Printf("import category %q created (%s)\n", created.Name, created.ID.Hex())
	},
}

func init() {
	rootCmd.AddCommand(provisionCmd)
}
