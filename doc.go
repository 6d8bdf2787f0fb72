// Package tendril is a conversation automation engine. It interprets a
// directed graph of conversational steps (a "flow") over a messaging
// channel, keeping one durable execution context (a "session") per contact.
//
// Flows are selected by trigger matching on inbound text. Action nodes
// (send-text, api-call, ai-query, set-variable) run back to back; waiting
// nodes (button-choice, wait-for-input) suspend the session until the
// contact replies. Edge selection follows source handles, so API failures
// can branch to a recovery path.
//
// The engine is storage- and channel-agnostic: hosts provide a
// ports.SessionStore, a ports.FlowSource and a ports.Transport. Adapters
// for memory, Redis and SQLite ship under pkg/adapters.
//
//	engine, err := tendril.New(flows, transport,
//	    tendril.WithStore(redisStore),
//	    tendril.WithHTTPCaller(httpcall.New()),
//	)
//	...
//	err = engine.ProcessMessage(ctx, userID, contact, text)
package tendril
