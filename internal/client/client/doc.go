// Package client contains the transport used by the data layer to talk to the
// admin backend.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): List,
//     Create, Update, Delete and Ping over named entity collections.
//  2. A concrete REST implementation (see RESTClient) that encodes query
//     descriptors as URL parameters, injects the bearer token and a request
//     id, unwraps the optional {status, elements} envelope and maps HTTP
//     failures to sentinel errors.
//
// # Wire format
//
//	GET    /{collection}?page=2&size=10&filter=name:ri&filter=countryId=lv&sort=name:asc
//	POST   /{collection}          body: record, echo: record | [records] | envelope
//	PUT    /{collection}          body: record, echo: record | [records] | envelope
//	DELETE /{collection}/{id}
//	GET    /ping                  {"status":"OK"}
//
// # Error Handling
//
// Every failure wraps common.ErrNetworkFailure; the status code adds
// common.ErrUnauthorized, common.ErrorNotFound or common.ErrUnavailable.
// Undecodable bodies add common.ErrParseFailure. A cancelled context is
// returned as the context error itself.
//
// Concurrency & Contexts
//
// RESTClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation.
package client
