// Package models defines the domain records of the portfolio.
//
// # Remote records
//
// User, Album and Photo mirror the JSON shapes served by the remote
// resource API. They are plain values: nothing in this module mutates a
// User or an Album after it is fetched.
//
// # Local records
//
//   - Override: locally persisted photo fields that win over the remote copy
//   - Identity: the signed-in person as reported by the identity provider
//   - Account: a credential row owned by the bundled identity provider
//
// Relationships use numeric ids (Album.UserID, Photo.AlbumID). The remote API
// does not guarantee referential integrity, so neither do these types.
package models
