package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// maxConsoleErrors caps how many page errors are retained.
const maxConsoleErrors = 50

// consoleCollector gathers uncaught exceptions and console.error calls from a page.
type consoleCollector struct {
	mu     sync.Mutex
	errors []string
}

func (c *consoleCollector) add(msg string) {
	if strings.Contains(msg, "favicon") || strings.Contains(msg, "Content Security Policy") {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
	if len(c.errors) > maxConsoleErrors {
		c.errors = c.errors[len(c.errors)-maxConsoleErrors:]
	}
}

// Errors returns a copy of the collected messages.
func (c *consoleCollector) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.errors))
	copy(out, c.errors)
	return out
}

// listenChromedp subscribes c to runtime events of the chromedp target in ctx.
func (c *consoleCollector) listenChromedp(ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *runtime.EventExceptionThrown:
			desc := e.ExceptionDetails.Text
			if e.ExceptionDetails.Exception != nil && e.ExceptionDetails.Exception.Description != "" {
				desc = e.ExceptionDetails.Exception.Description
			}
			c.add(fmt.Sprintf("EXCEPTION: %s", desc))

		case *runtime.EventConsoleAPICalled:
			if e.Type != runtime.APITypeError {
				return
			}
			var parts []string
			for _, arg := range e.Args {
				if arg.Value != nil {
					parts = append(parts, string(arg.Value))
				} else if arg.Description != "" {
					parts = append(parts, arg.Description)
				}
			}
			if len(parts) > 0 {
				c.add(fmt.Sprintf("console.error: %s", strings.Join(parts, " ")))
			}
		}
	})
}
