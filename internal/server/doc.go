// Package server runs the temporary loopback HTTP server that receives the
// OAuth authorization redirect during login.
//
// The [CallbackHandler] accepts exactly one redirect and delivers the raw
// code and state through a channel; validating the state and exchanging the
// code belong to the authenticator, not the handler. The [Loopback] wrapper
// owns the http.Server lifecycle: it starts before the browser opens and
// shuts down as soon as a result arrives, the context ends, or the wait
// times out.
package server
