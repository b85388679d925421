// Package extractors provides driven.Extractor implementations that turn
// upload bytes into text pages.
//
// Extractors are registered with the Registry at startup, which dispatches
// on the upload extension.
package extractors
