// Package models defines the domain entities handed to browsing and playback callers, and the loosely-typed remote records they are built from.
//
// The package contains two categories of types:
//
// 1. Domain entities: immutable values produced by the response parser
//   - [Track] : playable item with a streamable or catalog URI
//   - [Artist] : label or uploader name
//   - [Album] : constant "SoundCloud" album carrying artwork URIs
//   - [Image] : artwork normalized to the 500x500 template
//   - [Set] : named playlist with its raw track records
//   - [User], [Following] : account identity and followed accounts
//
// 2. Remote schema: every field the remote API may send is optional
//   - [Record] : track, playlist, user or activity item
//   - [RecordUser] : embedded uploader
//   - [Transcoding] : stream descriptor from the public api-v2 host
//
// Accessor methods on [Record] apply explicit defaults so callers never test
// for nil pointers themselves.
package models
