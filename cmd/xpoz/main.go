package main

import (
	"context"
	"errors"

	"xpoz/internal/startup"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
		startup.LogFatal("%v", err)
	}
}
