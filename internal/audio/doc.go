// Package audio turns provider payloads into sound: container decoding,
// sample rate conversion and playback through the oto/v3 device.
package audio
