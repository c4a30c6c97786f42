// Package session owns the authenticated-user identity for a running
// medhub instance. A single Manager reconciles three asynchronous
// sources -- a durable local cache, an identity provider's session
// change notifications, and explicit login/register/logout calls --
// into one consistent Session value that the rest of the application
// observes through Subscribe.
//
// The local cache is a startup hint only, never the source of truth:
// it is read exactly once before the provider listener attaches, and
// whatever the provider reports supersedes it.
package session
