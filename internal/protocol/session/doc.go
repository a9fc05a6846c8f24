// Package session drives one CoT session over a secure byte stream.
//
// The Controller owns connect, send, the receive loop and disconnect. The
// transport sits behind the Stream and Dialer interfaces; TLSDialer is the
// production implementation. Retry policy is left to callers, which can use
// Backoff between Connect attempts.
package session
