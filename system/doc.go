/*
Package system manages the startup, running, metrics and shutdown of the restclass server.

The server runs a few things side by side (the API, the admin API and the metrics
reporter) and must shut them all down cleanly when told to. A short delay before
shutting down lets in flight requests finish.

See cmd/restclass for the canonical usage.
*/
package system
