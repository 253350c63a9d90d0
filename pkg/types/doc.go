// Package types defines the Record shape, model descriptors, Config, and
// standard errors for the Larder storage engine.
package types
