/*
Package session implements per-contact serialization of engine invocations.

The engine must process inbound messages for one (user, contact) pair strictly
one at a time, while different contacts proceed concurrently. The Manager
provides reference-counted local locks keyed by contact, optionally combined
with a distributed lock for multi-replica deployments.
*/
package session
