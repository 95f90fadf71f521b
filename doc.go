// Package vitrine holds the shared types of the Vitrine de Imagens studio: the
// capability enum, the two request shapes posted to the Gemini/Imagen proxy, the
// classified error taxonomy and the user settings contract.
//
// The studio never talks to the vendor API directly. Every call is an
// [Envelope] posted to a key-holding proxy (see the proxy package) by the
// executor in the client package, which resolves the model through the router
// package, retries rate limits and falls back from retired models.
//
// # Making a call
//
//	store := settings.NewMemory(nil)
//	r, err := router.New(store)
//	if err != nil {
//	    return err
//	}
//	exec, err := client.New(client.Config{
//	    Router:    r,
//	    Transport: client.NewHTTPTransport("http://localhost:8080/api/gemini"),
//	})
//	if err != nil {
//	    return err
//	}
//
//	resp, err := exec.Execute(ctx, vitrine.CapabilityFastUtility,
//	    vitrine.NewContentRequest(genai.NewPartFromText("Olá")))
//	if err != nil {
//	    fmt.Println(vitrine.Classify(err).UserMessage())
//	}
//
// # Errors
//
// Failures surface as [*Error] with one of five kinds. Branch on the kind, show
// [Error.UserMessage] to the user and log the wrapped cause:
//
//	switch vitrine.KindOf(err) {
//	case vitrine.KindQuota:
//	    // ask the user to wait
//	case vitrine.KindContentBlocked:
//	    // ask for a different prompt
//	}
//
// Higher-level studio operations (analyze, edit, generate, translate, chat)
// live in the studio package; the region package turns pointer drags into the
// normalised boxes used by regional edits.
package vitrine
