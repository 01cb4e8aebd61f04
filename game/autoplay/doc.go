// Package autoplay picks placements for the falling piece and plays games
// with them.
//
// Planner enumerates every rotation and reachable column of the current
// piece (and optionally the piece a hold would bring in), drops it, and
// scores the resulting board by aggregate height, cleared lines, holes and
// bumpiness. Scores are cached per board fingerprint.
//
// Player applies the best plan to a local engine piece by piece. Client and
// PlayRemote do the same against a running server over its REST API.
package autoplay
