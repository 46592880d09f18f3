package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"melodex/config"
	"melodex/db"
	"melodex/logger"
	"melodex/storage"
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Check connectivity to the blob store and Redis",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.Init(logger.Config{Level: cfg.LogLevel})

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := storage.NewMinioStore(ctx, cfg); err != nil {
			log.Fatalf("blob store check failed: %v", err)
		}
		fmt.Printf("blob store ok: %s bucket %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		client, err := db.ConnectRedis(cfg)
		if err != nil {
			log.Fatalf("redis check failed: %v", err)
		}
		defer client.Close()
		fmt.Printf("redis ok: %s\n", cfg.RedisAddr)
	},
}

func init() {
	rootCmd.AddCommand(storageCmd)
}
