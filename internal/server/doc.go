// Package server holds the local HTTP pieces used while authorizing.
//
// [CallbackListener] is the throwaway server behind the redirect URI. It binds one
// local port, serves a single request, answers with an empty HTML page and then shuts
// itself down from another goroutine so the reply is flushed first. Once it is down
// the port is closed and new connections are refused.
//
// [CallbackHandler] never touches the listener. It is built with a delivery function
// and calls it once with the parsed [Callback].
//
// Routing goes through [BasicRouter], a method-filtering wrapper over [http.ServeMux].
// Middleware added with Use runs in the order it was added; [RequestLogger] is the only
// one shipped here.
package server
