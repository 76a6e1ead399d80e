package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jonboulle/clockwork"
	"golang.org/x/term"

	"countdown/backend/internal/share"
	"countdown/backend/internal/timekeeper"
)

var CLI struct {
	Base    string `help:"Base URL of the web client used in share links" default:"http://localhost:5173" env:"SHARE_BASE_URL"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	ShareTimer struct {
		Label   string `short:"l" help:"Timer label" required:""`
		Seconds int    `short:"s" help:"Duration in seconds" required:""`
	} `cmd:"" help:"Print a share link for a timer"`

	ShareEvent struct {
		Name string    `short:"n" help:"Event name" required:""`
		At   time.Time `help:"Target date (RFC3339)" required:""`
	} `cmd:"" help:"Print a share link for an event"`

	Embed struct {
		Label   string `short:"l" help:"Widget label" required:""`
		Seconds int    `short:"s" help:"Duration in seconds" required:""`
		Mode    string `help:"Widget mode" enum:"minimal,full" default:"minimal"`
		Theme   string `help:"Widget theme" enum:"light,dark" default:"light"`
	} `cmd:"" help:"Print an embed link and its iframe snippet"`

	Decode struct {
		Link string `arg:"" help:"Share link or query string"`
	} `cmd:"" help:"Decode a timer or event share link"`

	Format struct {
		Seconds int `arg:"" help:"Seconds to render as HH:MM:SS"`
	} `cmd:"" help:"Format a duration the way timers display it"`

	Run struct {
		Label   string `short:"l" help:"Label shown next to the countdown" default:"Timer"`
		Seconds int    `arg:"" help:"Duration in seconds"`
	} `cmd:"" help:"Run a countdown in the terminal"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("countdown"),
		kong.Description("Share links and terminal timers for the countdown backend."),
	)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	var err error
	switch ctx.Command() {
	case "share-timer":
		err = runShareTimer(os.Stdout, CLI.Base, CLI.ShareTimer.Label, CLI.ShareTimer.Seconds)
	case "share-event":
		err = runShareEvent(os.Stdout, CLI.Base, CLI.ShareEvent.Name, CLI.ShareEvent.At)
	case "embed":
		err = runEmbed(os.Stdout, CLI.Base, share.Embed{
			Label:           CLI.Embed.Label,
			DurationSeconds: CLI.Embed.Seconds,
			Mode:            CLI.Embed.Mode,
			Theme:           CLI.Embed.Theme,
		})
	case "decode <link>":
		err = runDecode(os.Stdout, CLI.Decode.Link)
	case "format <seconds>":
		fmt.Println(timekeeper.FormatClock(CLI.Format.Seconds))
	case "run <seconds>":
		sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		interactive := term.IsTerminal(int(os.Stdout.Fd()))
		err = runCountdown(sigCtx, clockwork.NewRealClock(), os.Stdout, interactive, CLI.Run.Label, CLI.Run.Seconds)
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}

	if err != nil {
		slog.Error("Command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}
