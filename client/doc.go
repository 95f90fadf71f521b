// Package client executes studio capability calls against the model proxy.
//
// The Executor wraps a Transport and a ModelRouter and provides:
//
//   - Capability routing: callers name a capability, the router picks the model
//   - Rate-limit retries: HTTP 429 is retried with exponential backoff and jitter
//   - Model fallback: a missing model (404) is retried once on its fallback
//   - Classification: every failure is returned as a *vitrine.Error
//   - Event emission: observable operations via channel
//
// # Basic Usage
//
//	r, err := router.New(settings)
//	if err != nil {
//	    return err
//	}
//	exec, err := client.New(client.Config{
//	    Router:    r,
//	    Transport: client.NewHTTPTransport("http://localhost:8000/api/gemini"),
//	})
//	if err != nil {
//	    return err
//	}
//
//	resp, err := exec.Execute(ctx, vitrine.CapabilityFastUtility,
//	    vitrine.NewContentRequest(genai.NewPartFromText("Traduza: cadeira")))
//	if err != nil {
//	    fmt.Println(vitrine.Classify(err).UserMessage())
//	    return err
//	}
//	text, err := resp.Text()
//
// # Retry Configuration
//
// The default policy makes up to 3 attempts with 1s, 2s delays plus up to 1s
// of jitter, each attempt bounded by 60s. Override it per executor:
//
//	cfg := vitrine.DefaultRetryConfig()
//	cfg.MaxRetries = 4
//	exec, _ := client.New(client.Config{Router: r, Transport: t, Retry: &cfg})
//
// A retryDelay hint in the upstream error body is honoured when it is longer
// than the computed delay.
//
// # Events
//
// Pass a buffered channel to observe retries and fallbacks:
//
//	events := make(chan client.Event, 100)
//	exec, _ := client.New(client.Config{Router: r, Transport: t, Events: events})
//	go func() {
//	    for e := range events {
//	        if e.Type == client.EventFallback {
//	            log.Printf("%s missing, using %s", e.Model, e.FallbackModel)
//	        }
//	    }
//	}()
package client
