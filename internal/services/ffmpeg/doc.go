// Package ffmpeg drives the external channel-extraction tool.
//
// Some recordings isolate an instrument on one side of the stereo image; when
// a catalog item carries channel overrides the splitter produces one
// single-channel excerpt per distinct side so separation can run against it.
package ffmpeg
