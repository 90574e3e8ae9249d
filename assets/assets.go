// Package assets holds static resources shipped with the cache client.
package assets

import _ "embed"

// IconName is the file name recorded for the icon layer.
const IconName = "jobcacher-oras.png"

// Icon is the PNG attached to every cache artifact so that registry UIs
// such as Harbor can display it.
//
//go:embed jobcacher-oras.png
var Icon []byte
