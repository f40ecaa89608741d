package core_test

import (
	"fmt"

	"github.com/cwbudde/algo-retrofox/dsp/core"
)

func ExampleApplyProcessorOptions() {
	cfg := core.ApplyProcessorOptions(
		core.WithSampleRate(44100),
		core.WithBlockSize(256),
		core.WithChannels(1),
	)

	fmt.Printf("sampleRate=%.0f blockSize=%d channels=%d\n", cfg.SampleRate, cfg.BlockSize, cfg.Channels)

	// Output:
	// sampleRate=44100 blockSize=256 channels=1
}

func ExampleNewChannels() {
	bufs := core.NewChannels(2, 3)
	core.CopyInto(bufs[1], []float64{1, 2, 3})
	fmt.Println(len(bufs), core.Frames(bufs), bufs[0], bufs[1])

	core.ZeroChannels(bufs)
	fmt.Println(bufs[1])

	// Output:
	// 2 3 [0 0 0] [1 2 3]
	// [0 0 0]
}

func ExampleDBToGain() {
	fmt.Printf("%.4f %.4f %v\n", core.DBToGain(0), core.DBToGain(-6), core.DBToGain(-60))

	// Output:
	// 1.0000 0.5012 0
}
