package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vietddude/swapwatch/internal/core/config"
	redisclient "github.com/vietddude/swapwatch/internal/infra/redis"
	"github.com/vietddude/swapwatch/internal/infra/storage"
	"github.com/vietddude/swapwatch/internal/infra/storage/postgres"
)

var resetCheckpointCmd = &cobra.Command{
	Use:   "reset-checkpoint [chat_id] [pool_id] [block_height]",
	Short: "Overwrite the stored checkpoint of a monitor",
	Long: `Overwrite the stored checkpoint of a monitor in Redis or PostgreSQL.
A checkpoint outside the lookback window of the chain head is ignored on the next start.`,
	Args: cobra.ExactArgs(3),
	Run:  runResetCheckpoint,
}

func init() {
	rootCmd.AddCommand(resetCheckpointCmd)
}

func runResetCheckpoint(cmd *cobra.Command, args []string) {
	chatID, poolID := args[0], args[1]
	height, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		fmt.Printf("Invalid block height: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if _, ok := cfg.Pool(poolID); !ok {
		fmt.Printf("Unknown pool %q\n", poolID)
		os.Exit(1)
	}

	ctx := context.Background()
	repo, closeFn, err := openCheckpointRepo(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open checkpoint store", "error", err)
		os.Exit(1)
	}
	defer closeFn()

	if err := repo.Save(ctx, chatID, poolID, height); err != nil {
		slog.Error("Failed to reset checkpoint", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully reset checkpoint for %s/%s to block %d\n", chatID, poolID, height)
}

// openCheckpointRepo follows the watcher's precedence: Redis, then PostgreSQL.
func openCheckpointRepo(ctx context.Context, cfg *config.AppConfig) (storage.CheckpointRepository, func(), error) {
	if cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return redisclient.NewCheckpointRepo(client), func() { _ = client.Close() }, nil
	}

	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return postgres.NewCheckpointRepo(db), func() { _ = db.Close() }, nil
	}

	return nil, nil, fmt.Errorf("no persistent storage configured (set redis.url or database.url)")
}
