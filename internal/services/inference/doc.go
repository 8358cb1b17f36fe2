// Package inference talks to a remote model server that hosts the speech,
// face and motion networks. Each generator contract is served by one JSON
// endpoint under /v1; audio travels base64-encoded inside the JSON body.
//
// Requests retry with exponential backoff on timeouts, 408, 429 and 5xx
// responses, honouring Retry-After. Failures are wrapped with the services
// error markers so callers can classify them.
package inference
