// Package speech owns the playback lifecycle for synthesized speech: a
// state-machine manager over the provider dispatcher, a bounded audio
// cache with oldest-first eviction, the floating player presentation
// contract, and keyed user notifications.
//
// The manager is dependency injected and has no global instance. At most
// one playback session exists at a time; new requests replace the active
// one, and stale asynchronous results are detected by generation token
// and discarded.
package speech
