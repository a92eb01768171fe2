// Package fal implements the client for the Fal.ai generation service:
// logo image synthesis and the agent name/persona randomizer. Both
// operations are cosmetic, so every failure path resolves to a fixed
// fallback rather than an error.
package fal
