// Package platform implements the environment prober: one-shot host
// platform detection and the side-effect-free existence checks that
// guard every idempotent apply in rigup.
package platform
