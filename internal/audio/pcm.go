package audio

// DownmixMono averages interleaved multi-channel samples into mono.
func DownmixMono(pcm []float64, channels int) []float64 {
	if channels <= 1 {
		return pcm
	}
	frames := len(pcm) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += pcm[i*channels+c]
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// Resample converts mono PCM from srcRate to dstRate using linear
// interpolation. Returns the input unchanged when the rates match.
func Resample(pcm []float64, srcRate, dstRate int) []float64 {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(pcm) < 2 {
		return pcm
	}

	dstLen := int(int64(len(pcm)) * int64(dstRate) / int64(srcRate))
	if dstLen == 0 {
		return nil
	}

	out := make([]float64, dstLen)
	ratio := float64(srcRate) / float64(dstRate)

	for i := range out {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := srcPos - float64(idx)

		s0 := pcm[idx]
		s1 := s0
		if idx+1 < len(pcm) {
			s1 = pcm[idx+1]
		}
		out[i] = s0*(1-frac) + s1*frac
	}
	return out
}
