// Package domain models the storm-track side of the storm data system.
//
// # Input contract
//
// This service consumes the transformed-weather-data topic produced by the
// storm-data-etl service. Each message value is a StormEvent JSON document:
// parsed, normalized, geocoded storm reports with WGS-84 coordinates, UTC
// times, and severity labels already derived upstream. [ParseTrackPoint]
// turns one of those into a TrackPoint and rejects events that cannot be
// placed (no coordinates) or ordered (no timestamp).
//
// # Track keys
//
// NOAA SPC point reports carry no storm identifier, so trajectories have to
// be reconstructed. Points are grouped by [TrackKey] — event type, NWS
// Weather Forecast Office code, and UTC day — which bounds a candidate storm
// cell: one office, one hazard, one convective day. The track assembler
// (internal/track) further splits a key group where consecutive reports are
// too far apart in time or on the ground.
//
// Events whose upstream comments carried no WFO code group under the "UNKN"
// office so they never merge into a real office's tracks.
//
// # ID generation
//
// Track IDs are deterministic SHA-256 hashes of key|first-time|first-point
// ([TrackID]). Replaying the source topic reassembles byte-for-byte the same
// track IDs, so the store's upserts stay idempotent without coordination,
// the same scheme the upstream ETL uses for event IDs.
package domain
