// Package http provides the HTTP transport layer for the analysis server.
// Handlers accept run requests, report run status, forward checkpoint
// decisions and upgrade WebSocket connections for live progress events.
package http
