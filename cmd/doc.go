// Package cmd contains the code shared by the sieve command-line utilities: loading a
// corpus from disk, building loggers, and connecting to the search backend described
// by a configuration.
package cmd
