// Package elevenlabs implements the speech-synthesis client used to turn
// coach messages into MP3 audio before video dispatch.
package elevenlabs
