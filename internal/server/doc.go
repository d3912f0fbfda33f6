// Package server runs the short-lived loopback HTTP server used to finish an OAuth
// authorization code flow from the terminal.
//
// # Router
//
// [BasicRouter] wraps [http.ServeMux] with method-scoped patterns and a [Middleware] stack.
// Middleware runs in the order it was added.
//
// # OAuth Callback
//
// [CallbackHandler] validates the state parameter, exchanges the authorization code for a
// token and delivers exactly one [CallbackResult]. Later requests are rejected so a replayed
// callback cannot overwrite the first result.
//
// [Listen] binds the server before the authorization URL is shown, so the callback can
// never arrive at a closed port.
package server
