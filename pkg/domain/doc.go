/*
Package domain contains the core domain models for the Tendril engine.

It defines the fundamental entities of the conversation state machine, such as
Flows, Nodes, Edges, and the per-contact Session. This package is kept pure and
free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Flow: A directed graph of conversational steps owned by a user account.
  - Node: A single step in a flow (action or waiting kind).
  - Edge: A directed, optionally handle-labeled connection between nodes.
  - Session: The durable execution cursor for one (user, contact) pair.
  - Payload: A structural representation of what the transport should deliver.
*/
package domain
