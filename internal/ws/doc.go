// Package ws terminates WebSocket connections for the chat broker.
//
// The package implements:
//   - Client: one connection's bounded outbound queue and lifecycle state
//   - Handler: upgrade, inbound event decoding, and the read/write pumps
//
// All stateful decisions are delegated to the broadcast engine; the gateway
// only moves bytes. A client whose outbound queue fills up is force-closed so
// a slow peer can never stall delivery to the others.
package ws
