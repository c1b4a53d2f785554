// Package api handles incoming HTTP requests, request validation, and
// response formatting. It acts as an adapter between web and WebSocket
// clients and the internal application services, translating HTTP concerns
// to business operations.
package api
