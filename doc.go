// Package enrich is a client for a contact-enrichment web API. It queues
// typed requests, paces them with a rate limiter learned from the API's own
// response headers, runs them on a bounded worker pool and hands back
// decoded results either synchronously or through a callback.
//
// # Key Concepts
//
//   - [Request] names an API operation by path and carries its parameters,
//     including an optional webhook address.
//   - [Policy] selects how requests are paced once the API reports its rate
//     limit: [Smooth] spacing, [Burst] credit, or [Disabled].
//   - [Dispatcher] owns the worker pool. [Dispatcher.Dispatch] never blocks.
//   - [Callback] receives exactly one of OnSuccess or OnFailure per request.
//   - [store.Store] keeps per-path usage counters. An in-memory store is used
//     by default; SQLite and Redis backends are available.
//
// # Quick Start
//
//	client, err := enrich.New(enrich.WithAPIKey(key), enrich.WithPolicy(enrich.Burst))
//	if err != nil {
//		return err
//	}
//	defer client.Close(context.Background())
//
//	// Blocking.
//	person, err := enrich.Send[Person](ctx, client, enrich.Get("person.json", map[string]string{
//		"email": "bart@example.com",
//	}))
//
//	// Non-blocking.
//	err = enrich.SendAsync[Person](client, req, enrich.CallbackFuncs[Person]{
//		Success: func(p Person) { ... },
//		Failure: func(err error) { ... },
//	})
//
// # Errors
//
// A [*UsageError] is returned directly when a call breaks the API contract,
// for example an asynchronous request with neither a callback nor a webhook.
// Everything that goes wrong after a request is queued arrives as a
// [*TransportError]. A blocking call whose context ends first returns an
// [*InterruptedWaitError].
package enrich
