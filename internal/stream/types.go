// Package stream implements the local screen-capture streaming server: the
// Capture Pipeline, the Stream Session lifecycle, and the WebSocket server
// that serves the latest captured frame to local subscribers behind an
// origin allowlist.
package stream

// maxFrameWidth is the hard-coded downscale policy (§9 Open Question):
// frames wider than this are nearest-neighbour downsampled before
// publishing. Not exposed as a parameter — no component of the front end
// has asked for a configurable cap.
const maxFrameWidth = 960

// DisplayInfo is a snapshot of one enumerable capture target.
type DisplayInfo struct {
	ID        uint32 `json:"id"`
	Title     string `json:"title"`
	IsPrimary bool   `json:"is_primary"`
}

// Config is the validated set of parameters a caller supplies to Start.
type Config struct {
	FPS       int
	Quality   int
	Port      int
	DisplayID *uint32
}

// Status is returned to the front end by GetStreamStatus and by Start.
type Status struct {
	Active    bool   `json:"active"`
	Port      int    `json:"port"`
	FPS       int    `json:"fps"`
	Quality   int    `json:"quality"`
	Clients   int32  `json:"clients"`
	DisplayID uint32 `json:"display_id"`
}
