package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/davenhall/taskgraph/internal/events"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream dependency events from NATS",
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = os.Getenv("TASKGRAPH_NATS_URL")
		}
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}
		if natsURL == "" {
			return fmt.Errorf("no NATS URL; set --nats, TASKGRAPH_NATS_URL, or a remote with nats_url")
		}
		topic, _ := cmd.Flags().GetString("topic")

		sub, err := events.NewNATSSubscriber(natsURL)
		if err != nil {
			return err
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return err
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Fprintf(os.Stderr, "watching %s on %s\n", topic, natsURL)

		for {
			select {
			case <-ctx.Done():
				return nil
			case data, ok := <-ch:
				if !ok {
					return nil
				}
				printEvent(data)
			}
		}
	},
}

func printEvent(data []byte) {
	ts := time.Now().Format("15:04:05")
	if jsonOutput {
		fmt.Println(string(data))
		return
	}
	var pretty map[string]any
	if err := json.Unmarshal(data, &pretty); err != nil {
		fmt.Printf("%s %s\n", ts, string(data))
		return
	}
	compact, _ := json.Marshal(pretty)
	fmt.Printf("%s %s\n", ts, string(compact))
}

func init() {
	watchCmd.Flags().String("nats", "", "NATS server URL")
	watchCmd.Flags().String("topic", "taskgraph.>", "subject to subscribe to")
}
