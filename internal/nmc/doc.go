// Package nmc is a typed client for the NMC v1.2 REST API.
//
// Each resource API (filers, volumes, shares, health, notifications, cloud
// credentials) issues requests through a client.Doer, so every call shares
// the same rate limiter, token and retry policy. AuthAPI performs the
// credential exchange and implements auth.Authenticator.
//
// Models mirror the NMC JSON and add small derived helpers such as
// FilerHealth.OverallStatus and Notification.Category. Summary methods
// produce the flattened views returned by tools.
package nmc
