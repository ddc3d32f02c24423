package command

import (
	"fmt"
	"strings"

	"github.com/mediakit/convert/internal/shell"
)

// MencoderBuilder builds mencoder command lines from a Config.
type MencoderBuilder struct {
	Binary string
	Config Config
}

// NewMencoderBuilder creates a builder for the given config using the
// default binary name.
func NewMencoderBuilder(cfg Config) *MencoderBuilder {
	return &MencoderBuilder{Binary: "mencoder", Config: cfg}
}

// segment builds one independent piece of the command line. An empty return
// drops the segment without leaving a stray separator.
type segment func() string

// Command assembles the full mencoder invocation:
//
//	mencoder <input> -o <output> -of <fmt> -ovc <vcodec>
//	  [-<vcodec>opts <opts>] [-oac <acodec>] [-<acodec>opts <opts>]
//	  [-srate <rate>] [-vf scale=...]
func (b *MencoderBuilder) Command(input, output string) string {
	cfg := b.Config

	segments := []segment{
		func() string { return shell.Escape(input) },
		func() string { return "-o " + shell.Escape(output) },
		func() string { return "-of " + cfg.OutputFormat },
		func() string { return "-ovc " + cfg.VideoCodec },
		func() string {
			return optsSegment(cfg.VideoCodec, cfg.VideoOpts, cfg.VideoOptsFlag)
		},
		func() string {
			if cfg.AudioCodec == "" {
				return ""
			}
			return "-oac " + cfg.AudioCodec
		},
		func() string {
			if cfg.AudioCodec == "" {
				return ""
			}
			return optsSegment(cfg.AudioCodec, cfg.AudioOpts, cfg.AudioOptsFlag)
		},
		func() string {
			if cfg.SampleRate == 0 {
				return ""
			}
			return fmt.Sprintf("-srate %d", cfg.SampleRate)
		},
		func() string { return scaleFilter(cfg.Width, cfg.Height) },
	}

	parts := []string{b.Binary}
	for _, seg := range segments {
		if s := seg(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// optsSegment renders a codec option string behind its flag. The flag
// defaults to "<codec>opts" unless overridden (x264 uses x264encopts, lame
// uses lameopts).
func optsSegment(codec, opts, flag string) string {
	if opts == "" {
		return ""
	}
	if flag == "" {
		flag = codec + "opts"
	}
	return fmt.Sprintf("-%s %s", flag, opts)
}

// scaleFilter renders the -vf scale expression. One unset side scales
// automatically; both unset means no filter at all.
func scaleFilter(width, height int) string {
	switch {
	case width > 0 && height > 0:
		return fmt.Sprintf("-vf scale=%d:%d", width, height)
	case width > 0:
		return fmt.Sprintf("-vf scale=%d:auto", width)
	case height > 0:
		return fmt.Sprintf("-vf scale=auto:%d", height)
	default:
		return ""
	}
}
