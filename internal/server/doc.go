// Package server exposes the wizard over HTTP: the embedded single-page
// UI at the root and the JSON API under /api. Response envelopes match
// what the UI expects, success flag plus either a payload or an error
// message.
package server
