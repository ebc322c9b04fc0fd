/*
Package backofficesdk is the client SDK for the back-office REST API
(vendors, fleet reservations, attendance, permission requests, Telegram and
agent monitoring, document-expiry reminders).

# Client vs Session

The package is organized around two main types:

  - Client: unauthenticated operations and session construction
  - Session: authenticated operations with automatic token refresh, idle
    detection, and a tag-invalidated query cache

Create a Client, then log in to obtain a Session:

	client := backofficesdk.NewClient("https://backoffice.example.com",
		backofficesdk.WithAPIKey(apiKey))

	session, err := client.Login(ctx, "alice", "correct-pw")

A previous session can be restored from the persisted state store without
re-entering credentials:

	client := backofficesdk.NewClient(baseURL, backofficesdk.WithStore(store, sealer))
	session, err := client.Restore(ctx)

# Automatic token refresh

Every authenticated operation obtains its bearer token through
Session.AccessToken, which refreshes the pair when the remaining lifetime
drops below a two-minute safety margin. Concurrent callers share a single
in-flight refresh. A failed refresh clears the session; there is no second
attempt.

Requests rejected with HTTP 401 are replayed exactly once after a successful
refresh. Any other failure propagates to the caller unmodified.

# Query cache

Read operations run through a querycache.Cache keyed by endpoint and
normalized parameters. Mutations declare the resource tags they invalidate;
see the querycache package for the matching rules.

# Idle detection

Session.StartIdleMonitor arms a two-stage inactivity timer: after the idle
timeout a warning callback fires, and after the warning grace period without
activity the session is logged out exactly once. Call Session.Activity from
the UI layer on user interaction.
*/
package backofficesdk
