// Package ytdlp drives the external fetch-and-trim tool during acquisition.
//
// The client filters an item's candidate links down to live sources on the
// accepted host, then walks them in catalog order: each candidate gets a
// bounded number of download attempts before being dropped, and the stage
// only succeeds when the trimmed excerpt actually exists on disk afterwards.
package ytdlp
