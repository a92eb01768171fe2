// Package moltbook implements the client for the Moltbook social
// platform: agent registration and post creation. No retries happen at
// this layer; post creation is rate limited upstream and the caller is
// expected to surface 429s rather than hammer the quota.
package moltbook
