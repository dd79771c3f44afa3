package bachmodem

/*------------------------------------------------------------------
 *
 * Purpose:	Public modem surface: bytes in, samples out, and back.
 *
 * Description:	Encode splits a message into polar blocks behind a
 *		2-byte length header, interleaves each block, runs the
 *		FH-DPSK modulator and frames the repetitions.  Decode
 *		walks the mirror path: acquire preambles, demodulate
 *		each repetition along its RAKE fingers, combine, then
 *		de-interleave and polar-decode block by block.
 *
 *		Nothing on the receive side is fatal.  Channel trouble
 *		surfaces as flags on the DecodeResult, never as an
 *		error; errors are reserved for caller mistakes.
 *
 *------------------------------------------------------------------*/

import (
	"errors"
	"fmt"
)

// maxMessageBytes is what the 2-byte length header can express.
const maxMessageBytes = 65535

// messageHeaderBytes is the framing overhead inside the polar payload
// stream: a big-endian message length.
const messageHeaderBytes = 2

var ErrMessageTooLong = errors.New("message exceeds 65535 bytes")

// Modem is one configured end of a link.  It is immutable after
// construction and safe for sequential reuse; the wavelet table and the
// polar frozen set are built once here.
type Modem struct {
	cfg           Config
	wavelets      *waveletTable
	preambleTmpl  []complex128
	postambleTmpl []complex128
	code          *polarCode
}

// DecodeResult is the best-effort outcome of one receive attempt.
type DecodeResult struct {
	Bytes []byte

	SyncFailed    bool // No preamble cleared the acceptance thresholds.
	CRCFailed     bool // Some used polar block had no CRC-valid list path.
	PartialDecode bool // Fewer repetitions or blocks than expected were recovered.

	PreamblePositions []int     // Sample index of each accepted preamble.
	SNRdB             []float64 // Per-repetition SNR estimates.
}

func NewModem(cfg Config) (*Modem, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var code, err = newPolarCode(cfg.PolarN, cfg.PolarK)
	if err != nil {
		return nil, err
	}

	var wavelets = newWaveletTable(cfg.SymbolDuration)

	return &Modem{
		cfg:           cfg,
		wavelets:      wavelets,
		preambleTmpl:  wavelets.preambleTemplate(cfg.PreambleCycles),
		postambleTmpl: wavelets.postambleTemplate(),
		code:          code,
	}, nil
}

// Config returns a copy of the modem's configuration.
func (m *Modem) Config() Config {
	return m.cfg
}

/*------------------------------------------------------------------
 *
 * Name:	Encode
 *
 * Purpose:	Turn a byte message into a transmittable waveform.
 *
 * Returns:	Baseband samples at 8 kHz.  Deterministic: the same
 *		message and configuration always produce the same
 *		samples.
 *
 *------------------------------------------------------------------*/

func (m *Modem) Encode(msg []byte) ([]float64, error) {
	var bits, err = m.channelBits(msg)
	if err != nil {
		return nil, err
	}

	var rep, _ = m.modulate(bits, true, true)

	logger.Debug("encoded message",
		"bytes", len(msg),
		"channelBits", len(bits),
		"repetitionSamples", len(rep),
		"repetitions", m.cfg.Repetitions)

	return repetitionFrame(rep, m.cfg.Repetitions, m.cfg.GapSeconds), nil
}

// channelBits frames, polar-encodes and interleaves a message into the
// channel-bit sequence of one repetition.
func (m *Modem) channelBits(msg []byte) ([]byte, error) {
	if len(msg) > maxMessageBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLong, len(msg))
	}

	if !m.cfg.PolarEnabled {
		// Uncoded diagnostic mode: the raw message bits go straight to
		// the modulator and the postamble marks where they end.
		return bytesToBits(msg), nil
	}

	var framed = make([]byte, 0, messageHeaderBytes+len(msg))
	framed = append(framed, byte(len(msg)>>8), byte(len(msg)&0xFF))
	framed = append(framed, msg...)

	var payload = bytesToBits(framed)
	var perBlock = m.code.payloadBits()
	var nblocks = (len(payload) + perBlock - 1) / perBlock

	var out = make([]byte, 0, nblocks*m.cfg.PolarN)
	for b := range nblocks {
		var chunk = make([]byte, perBlock)
		copy(chunk, payload[b*perBlock:min((b+1)*perBlock, len(payload))])

		var coded, err = m.code.encode(chunk)
		if err != nil {
			return nil, err
		}

		out = append(out, interleave(coded, m.cfg.InterleaverWidth)...)
	}

	return out, nil
}

/*------------------------------------------------------------------
 *
 * Name:	Decode
 *
 * Purpose:	Recover a byte message from a received waveform.
 *
 * Description:	Always returns.  The flag set on the result tells the
 *		caller how much to trust the bytes: sync failure means
 *		nothing was found at all, a CRC failure means the polar
 *		list produced no checksum-valid path and the best
 *		metric path is returned regardless, and a partial
 *		decode means some repetitions or trailing blocks were
 *		missing from the capture.
 *
 *------------------------------------------------------------------*/

func (m *Modem) Decode(samples []float64) DecodeResult {
	var result DecodeResult

	var dets, _ = m.synchronize(samples, m.cfg.Repetitions)
	if len(dets) == 0 {
		logger.Debug("decode: no preamble found", "samples", len(samples))
		result.SyncFailed = true
		return result
	}

	for _, det := range dets {
		result.PreamblePositions = append(result.PreamblePositions, det.pos)
		result.SNRdB = append(result.SNRdB, det.snrDB)
	}
	result.PartialDecode = len(dets) < m.cfg.Repetitions

	// Whole coded blocks that fit in every surviving repetition.  The
	// message length is not known yet, so this over-reads into the
	// postamble region; the decoded length header trims it below.
	var fit = -1
	for i, det := range dets {
		var limit = len(samples)
		if i+1 < len(dets) {
			limit = dets[i+1].pos
		}
		if f := m.fitDataBits(limit, det.pos); fit < 0 || f < fit {
			fit = f
		}
	}

	if !m.cfg.PolarEnabled {
		return m.decodeUncoded(samples, dets, fit, result)
	}

	var blocks = fit / m.cfg.PolarN
	if blocks <= 0 {
		logger.Debug("decode: no whole coded block fits", "fitBits", fit)
		result.PartialDecode = true
		result.CRCFailed = true
		return result
	}
	var nbits = blocks * m.cfg.PolarN

	var llrs = m.receiveLLRs(samples, dets, nbits)

	// Block 0 carries the length header; it bounds how many of the
	// speculative blocks are real.
	var payload, crcOK = m.decodeBlock(llrs, 0)
	var crcFailed = !crcOK

	var header = bitsToBytes(payload[:messageHeaderBytes*8])
	var msgLen = int(header[0])<<8 | int(header[1])
	var needBits = (messageHeaderBytes + msgLen) * 8
	var needBlocks = (needBits + m.code.payloadBits() - 1) / m.code.payloadBits()
	if needBlocks > blocks {
		result.PartialDecode = true
		needBlocks = blocks
	}

	var infoBits = append([]byte(nil), payload...)
	for b := 1; b < needBlocks; b++ {
		var p, ok = m.decodeBlock(llrs, b)
		if !ok {
			crcFailed = true
		}
		infoBits = append(infoBits, p...)
	}

	var framed = bitsToBytes(infoBits)
	if len(framed) > messageHeaderBytes {
		var body = framed[messageHeaderBytes:]
		if msgLen < len(body) {
			body = body[:msgLen]
		}
		result.Bytes = body
	}
	result.CRCFailed = crcFailed

	logger.Debug("decode finished",
		"repetitions", len(dets),
		"blocks", needBlocks,
		"bytes", len(result.Bytes),
		"crcFailed", result.CRCFailed,
		"partial", result.PartialDecode)

	return result
}

// decodeUncoded recovers raw message bits when the polar codec is
// switched off.  There is no length header, so the postamble sweep
// marks the end of the data symbols.
func (m *Modem) decodeUncoded(samples []float64, dets []syncDetection, fit int, result DecodeResult) DecodeResult {
	var t = m.wavelets
	var dataStart = dets[0].pos + t.preambleLen(m.cfg.PreambleCycles) + DifferentialLag*t.samplesPerSym

	var postPos = m.findPostamble(samples, dataStart)
	if postPos < 0 {
		result.PartialDecode = true
		return result
	}

	// Half a symbol of tolerance so a slightly early correlation peak
	// cannot round the last data symbol away.
	var nbits = m.fitDataBits(postPos+t.samplesPerSym/2, dets[0].pos)
	if nbits > fit {
		nbits = fit
	}
	if nbits <= 0 {
		result.PartialDecode = true
		return result
	}

	var llrs = m.receiveLLRs(samples, dets, nbits)
	result.Bytes = bitsToBytes(hardBits(llrs))

	logger.Debug("uncoded decode finished",
		"repetitions", len(dets), "bits", nbits, "bytes", len(result.Bytes))

	return result
}

// decodeBlock de-interleaves and polar-decodes one coded block out of
// the combined LLR stream.
func (m *Modem) decodeBlock(llrs []float64, block int) ([]byte, bool) {
	var n = m.cfg.PolarN
	var chunk = llrs[block*n : (block+1)*n]
	var natural = deinterleaveLLRs(chunk, m.cfg.InterleaverWidth, n)
	return m.code.decode(natural, m.cfg.PolarListSize)
}

// receiveLLRs demodulates every surviving repetition along its RAKE
// fingers and combines them into one LLR per channel bit.
func (m *Modem) receiveLLRs(samples []float64, dets []syncDetection, nbits int) []float64 {
	var corrs = make([][]complex128, 0, len(dets))
	var snrs = make([]float64, 0, len(dets))

	for _, det := range dets {
		var fingers = m.extractFingers(samples, det)
		logger.Debug("repetition demodulation",
			"preamble", det.pos, "snrDB", det.snrDB, "fingers", len(fingers))
		corrs = append(corrs, m.rakeCombine(samples, det, fingers, nbits))
		snrs = append(snrs, det.snrDB)
	}

	if m.cfg.Coherent {
		return differentialLLRs(combineRepetitions(corrs, snrs), nbits)
	}

	var repLLRs = make([][]float64, len(corrs))
	for i, c := range corrs {
		repLLRs[i] = differentialLLRs(c, nbits)
	}
	return sumLLRs(repLLRs, snrs)
}

// bytesToBits unpacks bytes MSB first, one bit per output byte.
func bytesToBits(data []byte) []byte {
	var bits = make([]byte, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>i)&1)
		}
	}
	return bits
}

// bitsToBytes packs bits MSB first; a ragged tail is dropped.
func bitsToBytes(bits []byte) []byte {
	var out = make([]byte, len(bits)/8)
	for i := range out {
		var b byte
		for j := range 8 {
			b = b<<1 | bits[i*8+j]&1
		}
		out[i] = b
	}
	return out
}
