// Package health holds the liveness contract shared by the API and the web frontend.
package health

// Body is the exact response of GET /health. The web frontend treats any
// other body as unhealthy.
const Body = `{"status":"ok","service":"testcracker-api"}`

const ContentType = "application/json; charset=utf-8"

// RootMessage is the response of GET / on the API.
const RootMessage = "Testcracker API root"
