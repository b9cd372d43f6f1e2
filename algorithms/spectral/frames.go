package spectral

import "math"

// TimeToFrames converts times in seconds to frame indices for the given hop
// length and sample rate: the time is first truncated to a sample index and
// then divided by the hop.
func TimeToFrames(times []float64, hopLength, sampleRate int) []int {
	frames := make([]int, len(times))
	if hopLength <= 0 {
		return frames
	}
	for i, t := range times {
		sample := int(math.Floor(t * float64(sampleRate)))
		frames[i] = int(math.Floor(float64(sample) / float64(hopLength)))
	}
	return frames
}

// FramesToTime is the inverse mapping, returning the start time of each frame.
func FramesToTime(frames []int, hopLength, sampleRate int) []float64 {
	times := make([]float64, len(frames))
	if sampleRate <= 0 {
		return times
	}
	for i, f := range frames {
		times[i] = float64(f*hopLength) / float64(sampleRate)
	}
	return times
}
