// Package app builds the catalog components from configuration and runs the
// startup scan. Commands depend on App rather than wiring packages
// themselves.
package app
