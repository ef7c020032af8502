// Package models defines the domain models for the items backend.
//
// # Models
//
//   - Item: the only persisted resource. The store assigns its ID and
//     CreatedAt; Name and Description never change after creation.
//
// Models carry JSON tags because they are rendered directly by the HTTP
// layer. Storage code builds them field by field from result rows; there is
// no reflection-based row mapping.
package models
