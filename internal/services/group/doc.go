// Package group sends group messages with sender keys.
//
// Our chain for a group is handed to each member once, inside a pairwise
// message. After that every group message is encrypted a single time and the
// same ciphertext is posted to each member. Distribution and fan-out run
// concurrently per member.
package group
