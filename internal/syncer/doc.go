// SPDX-License-Identifier: MPL-2.0

// Package syncer orchestrates a sync run.
//
// A run validates the source monorepo, optionally stages and builds it,
// enumerates its packages, asks which destinations to use and copies every
// package into each destination's scope directory. Destinations and packages
// are processed one at a time. A package that fails is recorded in its
// destination's Result and the run continues; only problems with the source
// itself end the run with an error.
package syncer
