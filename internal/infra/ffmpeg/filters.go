package ffmpeg

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type renderPlan struct {
	images     []string
	audio      string
	perImage   float64
	total      float64
	width      int
	height     int
	fps        int
	useEffects bool
	output     string
}

// args builds one ffmpeg invocation: per-image inputs, a filter graph that
// normalizes every image to the target frame and concatenates them, then the
// narration track.
func (p renderPlan) args() []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, img := range p.images {
		if p.useEffects {
			args = append(args, "-i", img)
		} else {
			args = append(args, "-loop", "1", "-t", formatSeconds(p.perImage), "-i", img)
		}
	}
	if p.audio != "" {
		args = append(args, "-i", p.audio)
	}

	args = append(args, "-filter_complex", p.filterGraph(), "-map", "[outv]")
	if p.audio != "" {
		args = append(args, "-map", fmt.Sprintf("%d:a", len(p.images)), "-c:a", "aac", "-b:a", "192k")
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(p.fps),
	)
	if p.useEffects {
		args = append(args, "-shortest")
	} else {
		args = append(args, "-t", formatSeconds(p.total))
	}
	return append(args, "-movflags", "+faststart", p.output)
}

func (p renderPlan) filterGraph() string {
	var b strings.Builder
	labels := make([]string, len(p.images))
	for i := range p.images {
		labels[i] = fmt.Sprintf("[v%d]", i)
		if p.useEffects {
			fmt.Fprintf(&b, "[%d:v]%s%s;", i, p.kenBurns(i), labels[i])
		} else {
			fmt.Fprintf(&b, "[%d:v]%s,fps=%d,format=yuv420p%s;", i, fitFrame(p.width, p.height), p.fps, labels[i])
		}
	}
	fmt.Fprintf(&b, "%sconcat=n=%d:v=1:a=0[outv]", strings.Join(labels, ""), len(p.images))
	return b.String()
}

// fitFrame letterboxes the input inside a w x h frame, centered.
func fitFrame(w, h int) string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1", w, h, w, h)
}

// kenBurns zooms in on even images and out on odd ones. The image is first
// fitted into a frame twice the target size to keep zoompan from jittering.
func (p renderPlan) kenBurns(index int) string {
	frames := int(math.Ceil(p.perImage * float64(p.fps)))
	if frames < 1 {
		frames = 1
	}
	step := (maxZoom - 1.0) / float64(frames)

	zoom := fmt.Sprintf("min(zoom+%.6f,%.2f)", step, maxZoom)
	if index%2 == 1 {
		zoom = fmt.Sprintf("if(lte(zoom,1.0),%.2f,max(1.001,zoom-%.6f))", maxZoom, step)
	}
	return fmt.Sprintf("%s,zoompan=z='%s':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d,format=yuv420p",
		fitFrame(p.width*2, p.height*2), zoom, frames, p.width, p.height, p.fps)
}
