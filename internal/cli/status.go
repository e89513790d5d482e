package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status [chat_id]",
	Short: "Show the running monitors, optionally for one chat",
	Args:  cobra.MaximumNArgs(1),
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	chatID := ""
	if len(args) == 1 {
		chatID = args[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statuses, err := newAPIClient(apiURL).List(ctx, chatID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch status: %v\n", err)
		os.Exit(1)
	}
	printStatuses(os.Stdout, statuses)
}

func printStatuses(out io.Writer, statuses []domain.MonitorStatus) {
	if len(statuses) == 0 {
		fmt.Fprintln(out, "No monitors running")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CHAT\tPOOL\tCHAIN\tSTATE\tCHECKPOINT\tMOVED\tLAG\tSEEN\tNOTIFIED\tSTARTED")

	for _, s := range statuses {
		state := string(s.State)
		if s.Degraded {
			state += " (degraded)"
		}
		moved := "-"
		if !s.CheckpointAt.IsZero() {
			moved = humanize.Time(s.CheckpointAt)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%d\t%d\t%d\t%s\n",
			s.ChatID, s.PoolID, s.Network, state, s.Checkpoint, moved, s.Lag(), s.SeenCount, s.SwapsNotified,
			humanize.Time(s.StartedAt))
	}
	_ = w.Flush()
}
