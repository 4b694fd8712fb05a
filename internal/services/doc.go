// Package services implements the SoundCloud client consumed by browsing and
// playback callers.
//
// # Session
//
// [NewSession] builds three [http.Client] values sharing one transport chain:
//
//	oauth2 (Authorization: OAuth <token>) → User-Agent → throttle → retry → base
//
// The throttle only inspects HEAD requests to the API host and answers with a
// synthesized 429 once a burst is used up. The retry layer repeats GETs that
// failed on the network or with a 5xx, backing off from 500ms up to 5s.
//
// # Parsing
//
// [Parser] turns [models.Record] values into [models.Track]. Records that are
// not streamable or not tracks are dropped, playlists are expanded, and every
// list handed back has failed parses removed.
//
// # Streams
//
// [Streams] resolves playable URLs with an explicit state machine:
//
//	TryPublic  → Resolved | TryPrivate
//	TryPrivate → Resolved | TryPreview (on 429) | Failed
//	TryPreview → Resolved | Failed
//
// Public resolution scrapes a client id from the web player and refreshes it
// once per resolution when api-v2 answers 401.
//
// # Facade
//
// [SoundCloudService] implements [Service]. It memoizes fetches with
// [cache.Memo] (listings under a short TTL), fans out batch lookups over an
// errgroup, and never returns errors: failures are logged and become nil or
// empty results. A token rejected at construction is logged with
// [shared.InvalidTokenMessage].
//
// [APIService] performs raw authenticated GETs for debugging.
package services
