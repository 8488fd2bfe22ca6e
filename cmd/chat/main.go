package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/physio-booking/internal/app/bootstrap"
	appconfig "github.com/wolfman30/physio-booking/internal/config"
	"github.com/wolfman30/physio-booking/internal/conversation"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	logger := logging.NewText(os.Stderr, cfg.LogLevel)
	if err := run(context.Background(), cfg, time.Now, os.Stdin, os.Stdout, logger); err != nil {
		logger.Error("chat failed", "error", err)
		os.Exit(1)
	}
}

// run drives one chat session over the seeded in-memory clinic until the
// booking completes, the input ends or the user types "izlaz".
func run(ctx context.Context, cfg *appconfig.Config, now func() time.Time, in io.Reader, out io.Writer, logger *logging.Logger) error {
	stores, err := bootstrap.BuildMemoryStores(now(), cfg.BookingHorizonDays)
	if err != nil {
		return err
	}
	eng := bootstrap.BuildEngine(cfg, bootstrap.EngineOptions{
		Stores:   stores,
		Notifier: bootstrap.BuildNotifier(cfg, logger),
		Now:      now,
		Logger:   logger,
	})

	id, reply, err := eng.Sessions.StartChat(ctx)
	if err != nil {
		return err
	}
	printReply(out, reply)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if strings.EqualFold(text, "izlaz") {
			return nil
		}
		reply, err := eng.Sessions.Chat(ctx, id, text)
		printReply(out, reply)
		if err != nil {
			logger.Warn("input failed", "error", err)
			continue
		}
		if reply.State.Booked() {
			return nil
		}
	}
}

func printReply(out io.Writer, reply conversation.Reply) {
	for _, m := range reply.Messages {
		fmt.Fprintln(out, m.Text)
		for i, opt := range m.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, opt.Label)
		}
	}
}
