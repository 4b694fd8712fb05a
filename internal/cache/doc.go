// Package cache implements the expiring memoization layer shared by the
// SoundCloud client.
//
// A [Memo] stores the result of a fetch function under a key and serves it
// until either bound is crossed:
//
//   - ctl: the number of calls an entry may answer, counting the call that
//     stored it. With ctl=8 the fetch runs once for eight identical calls and
//     again on the ninth.
//   - ttl: the age after which the entry is refetched regardless of ctl.
//
// Errors are never stored. Keys for arbitrary argument lists are built with
// [Signature]; [Call] falls back to running the fetch directly when the
// arguments cannot be encoded.
package cache
