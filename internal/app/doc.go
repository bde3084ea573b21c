// Package app wires application dependencies for the CLI.
//
// It loads Config from a YAML file in the home directory and builds the key
// store, relay client, metrics registry and services from it, exposing them
// on App for commands to use.
package app
