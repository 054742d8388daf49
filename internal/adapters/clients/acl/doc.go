// Package acl holds the adapters that speak to hosted APIs over
// [clients.Client] and keep their wire formats out of the domain.
//
// Each adapter embeds [BaseAdapter], declares unexported DTOs for the
// provider's JSON, and translates them into domain types. Failures are
// mapped in one place:
//
//   - [MapHTTPError] turns statuses and PostgREST/Postgres codes into
//     domain errors for adapters the service owns end to end (the
//     Supabase quote store).
//   - [UpstreamFromResponse] wraps a provider rejection in
//     [domain.UpstreamError] for pass-through adapters (Resend) whose
//     status and message are relayed to the browser unchanged.
//
// Transport failures, including [clients.ErrCircuitOpen] and
// [clients.ErrMaxRetriesExceeded], always become [domain.ErrUnavailable].
package acl
