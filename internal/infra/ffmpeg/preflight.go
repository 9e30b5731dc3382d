package ffmpeg

import (
	"context"
	"os/exec"
	"time"
)

const preflightTimeout = 10 * time.Second

// Available reports whether the ffmpeg binary can be executed.
func (c *Compiler) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, preflightTimeout)
	defer cancel()
	return exec.CommandContext(ctx, c.cfg.Binary, "-version").Run() == nil
}
