package modulation_test

import (
	"fmt"

	"github.com/cwbudde/algo-retrofox/dsp/effects/modulation"
)

func ExampleFlanger_Process() {
	fl, err := modulation.NewFlanger(1000,
		modulation.WithFlangerOffsetMs(2),
		modulation.WithFlangerDepthMs(0),
		modulation.WithFlangerChannels(1),
	)
	if err != nil {
		fmt.Println("error")
		return
	}

	in := [][]float64{{1, 0, 0, 0}}
	out := [][]float64{make([]float64, 4)}
	fl.Process(out, in)

	fmt.Println(out[0])
	// Output:
	// [0 0 1 0]
}
