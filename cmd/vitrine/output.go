package main

import (
	"fmt"
	"io"
	"time"

	"github.com/atlas-moltbot/vitrine-de-imagens/client"
	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.FgHiBlack)
)

func success(w io.Writer, format string, args ...any) {
	okColor.Fprint(w, "✓ ")
	fmt.Fprintf(w, format+"\n", args...)
}

func warning(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, "! "+format+"\n", args...)
}

func failure(w io.Writer, format string, args ...any) {
	errColor.Fprint(w, "✗ ")
	fmt.Fprintf(w, format+"\n", args...)
}

func detail(w io.Writer, format string, args ...any) {
	dimColor.Fprintf(w, "  "+format+"\n", args...)
}

// report prints retry and fallback progress until events is closed.
func (a *app) report(events <-chan client.Event) {
	defer close(a.drained)
	for ev := range events {
		switch ev.Type {
		case client.EventRetry:
			if ev.RetryEvent != nil && ev.RetryEvent.Type == client.RetryEventRetrying {
				warning(a.errOut, "%s rate limited, retry %d/%d in %s",
					ev.Model, ev.RetryEvent.Attempt, ev.RetryEvent.MaxAttempts-1, ev.RetryEvent.Delay.Round(100*time.Millisecond))
			}
		case client.EventFallback:
			warning(a.errOut, "%s unavailable, falling back to %s", ev.Model, ev.FallbackModel)
		case client.EventRequestComplete:
			detail(a.errOut, "%s answered by %s in %s", ev.Capability, ev.Model, ev.Duration.Round(time.Millisecond))
		}
	}
}
