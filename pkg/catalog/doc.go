// Package catalog declares the end state rigup converges a machine
// onto: the tools to install and the configuration edits to apply.
// The tables are compiled in; the user settings file can disable
// tools and adjust the shell theme and plugin list.
package catalog
