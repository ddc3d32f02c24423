// Package command assembles the shell command strings that drive the
// external encoders. Builders are pure: the same config and paths always
// yield the same command.
package command

// Config holds the encoding parameters shared by all builders. It is a
// value; configure it once per conversion and pass it around read-only.
type Config struct {
	// Width and Height are independently optional. Setting one scales the
	// other side automatically; setting neither disables scaling.
	Width  int
	Height int

	// SampleRate is the target audio sample rate, omitted when zero.
	SampleRate int

	// OutputFormat names the output container (-of for mencoder).
	OutputFormat string

	VideoCodec string
	// VideoOpts is the codec-specific option string. When empty the whole
	// options segment is omitted.
	VideoOpts string
	// VideoOptsFlag overrides the option flag name; default is
	// "<codec>opts".
	VideoOptsFlag string

	// AudioCodec is omitted entirely when empty, along with its options.
	AudioCodec    string
	AudioOpts     string
	AudioOptsFlag string
}

// Builder produces a complete shell command for one encoder family.
type Builder interface {
	// Command returns the shell-safe command string converting input into
	// output.
	Command(input, output string) string
}

// H263Preset is the flv/lavc configuration carried over from the classic
// web-video profile.
func H263Preset() Config {
	return Config{
		Width:         640,
		Height:        480,
		SampleRate:    22050,
		OutputFormat:  "lavf",
		VideoCodec:    "lavc",
		VideoOpts:     "vcodec=flv:vbitrate=700:trell:v4mv:mv0:mbd=2:cbp:aic:cmp=3:subcmp=3",
		AudioCodec:    "mp3lame",
		AudioOpts:     "abr:br=64",
		AudioOptsFlag: "lameopts",
	}
}

// H264Preset is the x264 configuration.
func H264Preset() Config {
	return Config{
		Width:         640,
		Height:        480,
		SampleRate:    22050,
		OutputFormat:  "lavf",
		VideoCodec:    "x264",
		VideoOptsFlag: "x264encopts",
		AudioCodec:    "mp3lame",
		AudioOpts:     "abr:br=64",
		AudioOptsFlag: "lameopts",
	}
}

// Presets maps preset names accepted in job configs to their base Config.
var Presets = map[string]func() Config{
	"h263": H263Preset,
	"h264": H264Preset,
}
