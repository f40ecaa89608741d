//go:build !headless

package cli

import (
	"context"
	"time"

	"github.com/ebitengine/oto/v3"
)

func playPCM(ctx context.Context, r *pcmReader, sampleRate, channels int, progress func()) error {
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return err
	}
	<-ready

	player := otoCtx.NewPlayer(r)
	defer player.Close()

	player.Play()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
			progress()
		}
	}

	progress()

	return player.Err()
}
