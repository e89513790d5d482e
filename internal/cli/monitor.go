package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

var recentCount int

var startCmd = &cobra.Command{
	Use:   "start [chat_id] [pool_id]",
	Short: "Start monitoring a configured pool for a chat",
	Args:  cobra.ExactArgs(2),
	Run:   runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop [chat_id] [pool_id]",
	Short: "Stop a running monitor",
	Args:  cobra.ExactArgs(2),
	Run:   runStop,
}

var recentCmd = &cobra.Command{
	Use:   "recent [chat_id] [pool_id]",
	Short: "Show the most recent swaps seen by a monitor",
	Args:  cobra.ExactArgs(2),
	Run:   runRecent,
}

func init() {
	recentCmd.Flags().IntVarP(&recentCount, "count", "n", 5, "number of swaps to show")
	rootCmd.AddCommand(startCmd, stopCmd, recentCmd)
}

func runStart(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, err := newAPIClient(apiURL).Start(ctx, args[0], args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start monitor: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Monitoring %s for chat %s from block %d (id %s)\n", status.PoolID, status.ChatID, status.Checkpoint, status.ID)
}

func runStop(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	state, err := newAPIClient(apiURL).Stop(ctx, args[0], args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to stop monitor: %v\n", err)
		os.Exit(1)
	}
	if state == domain.MonitorStopping {
		fmt.Printf("Unregistered %s for chat %s, monitor is still stopping\n", args[1], args[0])
		return
	}
	fmt.Printf("Stopped monitoring %s for chat %s\n", args[1], args[0])
}

func runRecent(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := newAPIClient(apiURL).Recent(ctx, args[0], args[1], recentCount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch recent swaps: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(resp.Summary)
}
