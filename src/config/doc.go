// Package config defines the configuration for a routing node.
//
// Whether the node is started from Go code or from the command line, it uses
// the Config object defined in this package to store and forward
// configuration options. On top of these options, the node relies on a data
// directory, defined by Config.DataDir, where it expects to find a few
// additional files:
//
//	peers.json // a JSON file containing the list of known peers.
//	routing.toml // (optional) configuration values, overridden by flags.
package config
