// Package main provides the admin CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/osa030/humbleledger/internal/api/rest"
)

var (
	app    = kingpin.New("humbleledger-admincli", "humbleledger status API client")
	server = app.Flag("server", "Status API address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Admin token (or set ADMIN_TOKEN env)").Envar("ADMIN_TOKEN").String()

	// list command
	listCmd = app.Command("list", "List the listening parties of every channel").Alias("status")

	// show command
	showCmd     = app.Command("show", "Show what a channel's listening party is playing")
	showChannel = showCmd.Arg("channel-id", "Discord channel ID").Required().String()
	showOffset  = showCmd.Flag("offset", "Look ahead by this duration").Default("0s").Duration()

	// start command
	startCmd     = app.Command("start", "Start a channel's listening party now")
	startChannel = startCmd.Arg("channel-id", "Discord channel ID").Required().String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := rest.NewClient(*server, *token, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch command {
	case listCmd.FullCommand():
		list(ctx, client)
	case showCmd.FullCommand():
		show(ctx, client, *showChannel, *showOffset)
	case startCmd.FullCommand():
		if *token == "" {
			fmt.Println("Error: admin token is required (use --token or ADMIN_TOKEN env)")
			os.Exit(1)
		}
		start(ctx, client, *startChannel)
	}
}

func list(ctx context.Context, client *rest.Client) {
	views, err := client.Sessions(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if len(views) == 0 {
		fmt.Println("No listening parties")
		return
	}

	fmt.Println("\n=== LISTENING PARTIES ===")
	for _, v := range views {
		fmt.Printf("\nChannel: %s\n", v.ChannelID)
		printSession(v)
	}
	fmt.Println()
}

func show(ctx context.Context, client *rest.Client, channelID string, offset time.Duration) {
	v, err := client.Session(ctx, channelID, offset)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nChannel: %s\n", v.ChannelID)
	printSession(*v)
	fmt.Println()
}

func start(ctx context.Context, client *rest.Client, channelID string) {
	v, err := client.Start(ctx, channelID)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Listening party started")
	printSession(*v)
}

func printSession(v rest.SessionView) {
	fmt.Printf("  %s: %s\n", v.Kind, v.Name)
	if v.URL != "" {
		fmt.Printf("  URL: %s\n", v.URL)
	}
	fmt.Printf("  Tracks: %d (%s)\n", v.Tracks, v.TotalDuration)
	if v.Started != nil {
		fmt.Printf("  Started: %s\n", v.Started.Local().Format(time.RFC1123))
	}
	fmt.Printf("  State: %s\n", formatState(v.State))

	switch {
	case v.Track != nil:
		fmt.Printf("\n  Now Playing:\n")
		fmt.Printf("    Track %d: %s\n", v.Track.Number, v.Track.Name)
		if v.Track.Artists != "" {
			fmt.Printf("    Artists: %s\n", v.Track.Artists)
		}
		fmt.Printf("    Position: %s / %s\n", v.Position, v.Track.Duration)
	case v.Overrun != "":
		fmt.Printf("  Ended %s ago\n", v.Overrun)
	}
}

func formatState(state string) string {
	switch state {
	case "not_started":
		return "Not started"
	case "playing":
		return "Playing"
	case "finished":
		return "Finished"
	default:
		return state
	}
}
