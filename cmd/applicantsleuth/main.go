package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fr4nk3nst1ner/applicantsleuth/cmd/applicantsleuth/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.ExecuteContext(ctx)
	stop()
	os.Exit(code)
}
