// Package favstore holds the key-value backends the favourites set is
// persisted in. Every backend implements gallery.KV and reports a missing
// key as gallery.ErrKeyNotFound.
package favstore
