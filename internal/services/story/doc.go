// Package story implements real-time collaborative narrative rooms.
//
// It keeps WebSocket lifecycle, event sequencing, and fan-out isolated from
// text generation so the completion backend stays a swappable collaborator
// behind a one-method interface.
package story
