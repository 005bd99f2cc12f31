// Package mock provides test doubles shared across nmc-mcp packages.
//
// MockClock implements clock.Clock with manual time control and timers that
// only fire when the clock is advanced. It drives token-expiry and
// rate-limit tests without real sleeps.
//
// NMCServer is an httptest-based fake of the NMC REST API backed by the
// fixture data in fixtures/nmc.yaml. It issues tokens, enforces them and can
// be scripted to fail specific paths.
package mock
