/*
Package ports defines the driven ports (interfaces) for the Tendril engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various session stores, flow sources, messaging
transports and side-effect services.

# Key Interfaces

  - SessionStore: Responsible for persisting per-contact conversation progress.
  - FlowSource: Responsible for resolving flows by ID and by trigger text.
  - Transport: Responsible for delivering payloads to a contact.
  - HTTPCaller / Completer: External side-effect services invoked by nodes.
*/
package ports
