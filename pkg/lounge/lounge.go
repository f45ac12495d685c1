// Package lounge holds module-wide metadata.
package lounge

// Version is the loungepos release version.
const Version = "0.1.0"
