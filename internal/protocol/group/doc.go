// Package group implements sender keys: each member of a group owns a
// signed hash-ratchet chain, hands its seed to the other members once over
// pairwise sessions, and then encrypts every group message a single time.
//
// Chains never DH-ratchet and are not rotated automatically. A receiver keeps
// the last few chains per sender and the keys of skipped iterations.
package group
