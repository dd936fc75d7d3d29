// Package server exposes the render engine over HTTP.
//
// Routes:
//
//	POST /v1/render        one JSON tree in, {id, infix, latex, nodes, depth} out
//	POST /v1/render/batch  JSON array of {id, tree} documents in, engine report out
//	GET  /health           liveness
//	GET  /metrics          Prometheus exposition (path configurable)
//
// Malformed bodies and trees that do not match the node shapes get 400.
// Trees that decode but cannot be rendered (unknown tags, too deep) get 422.
// Every response carries an X-Request-ID header; the client's value is kept
// when present, otherwise a UUID is generated.
package server
