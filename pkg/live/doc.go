// Package live implements the bidirectional voice session engine for
// the desktop companion.
//
// A Session owns one long-lived connection to the remote voice model.
// While open, microphone audio is framed, encoded, and streamed out;
// inbound events fan out from a single dispatch point to the playback
// scheduler, the tool dispatcher, or the transcript accumulator.
// A barge-in signal from the model cuts playback immediately.
//
// The Transport interface isolates the wire protocol; Gemini is the
// bundled implementation over the Gemini Live websocket API.
package live
