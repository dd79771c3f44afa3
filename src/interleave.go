package bachmodem

/*------------------------------------------------------------------
 *
 * Purpose:	Block interleaver between coded bits and channel
 *		symbols.
 *
 * Description:	Fading on HF arrives in bursts.  The polar decoder
 *		wants its errors spread evenly, so coded bits are
 *		written row-major into a matrix of interleaverWidth
 *		columns and read out column-major.  De-interleaving is
 *		the exact inverse: write column-major, read row-major,
 *		strip the padding.
 *
 *		When the block length is a multiple of the width (the
 *		256/16 default) no padding is needed and the mapping is
 *		a clean bijection.  Both ends must agree on the width.
 *
 *------------------------------------------------------------------*/

// interleave permutes bits into channel order.  The output length is
// rows*width, i.e. the input zero-padded up to a full matrix.
func interleave(bits []byte, width int) []byte {
	var rows = (len(bits) + width - 1) / width
	var out = make([]byte, 0, rows*width)

	for col := range width {
		for row := range rows {
			var idx = row*width + col
			if idx < len(bits) {
				out = append(out, bits[idx])
			} else {
				out = append(out, 0)
			}
		}
	}

	return out
}

// deinterleave inverts interleave.  n is the original (pre-padding) bit
// count; the returned slice has exactly that length.
func deinterleave(bits []byte, width int, n int) []byte {
	var rows = (n + width - 1) / width
	var out = make([]byte, rows*width)

	var pos = 0
	for col := range width {
		for row := range rows {
			out[row*width+col] = bits[pos]
			pos++
		}
	}

	return out[:n]
}

// deinterleaveLLRs is deinterleave over soft values.  The demodulator
// hands the decoder one LLR per channel bit and the permutation must
// match the bit path exactly.
func deinterleaveLLRs(llrs []float64, width int, n int) []float64 {
	var rows = (n + width - 1) / width
	var out = make([]float64, rows*width)

	var pos = 0
	for col := range width {
		for row := range rows {
			out[row*width+col] = llrs[pos]
			pos++
		}
	}

	return out[:n]
}
