// Package stft implements the 512-point real-input radix-4 FFT used to
// produce the live spectrogram. The window is a literal half-sine, not a
// true Hann window; this is preserved deliberately (see the original
// AudioMoth-Live-App backstage/src/stft.c this is ported from).
package stft

import "math"

const (
	// Size is the number of real input samples per transform.
	Size = 512
	csize = Size << 1

	bitsInUint32 = 32
)

// Engine holds the precomputed window, twiddle and bit-reversal tables for
// the 512-point transform. It is not safe for concurrent use: callers must
// serialise calls to Transform (the capture callback already does this,
// since it only calls Transform from its own single writer).
type Engine struct {
	width int32

	out                [csize]float32
	coefficients       [Size]float32
	trigonometryTable  [csize]float32
	bitReversalTable   [Size / 2]uint32
}

// New builds an Engine with its tables precomputed.
func New() *Engine {
	e := &Engine{}

	for i := int32(0); i < csize; i += 2 {
		angle := math.Pi * float64(i) / float64(Size)
		e.trigonometryTable[i] = float32(math.Cos(angle))
		e.trigonometryTable[i+1] = float32(-math.Sin(angle))
	}

	for i := int32(0); i < Size; i++ {
		e.coefficients[i] = float32(math.Sin(math.Pi * float64(i) / (float64(Size) - 1.0)))
	}

	power := int32(0)
	for t := int32(1); Size > t; t <<= 1 {
		power++
	}

	if power%2 == 0 {
		e.width = power - 1
	} else {
		e.width = power
	}

	for j := int32(0); j < Size/2; j++ {
		var reversed uint32
		for shift := int32(0); shift < e.width; shift += 2 {
			revShift := e.width - shift - 2
			reversed |= ((uint32(j) >> uint32(shift)) & 3) << (uint32(bitsInUint32+revShift) % bitsInUint32)
		}
		e.bitReversalTable[j] = reversed
	}

	return e
}

func (e *Engine) singleRealTransform2(audio []int16, audioOffset, index, step, outOffset int32) {
	evenR := float32(audio[audioOffset+index]) * e.coefficients[index]
	oddR := float32(audio[audioOffset+index+step]) * e.coefficients[index+step]

	leftR := evenR + oddR
	rightR := evenR - oddR

	e.out[outOffset] = leftR
	e.out[outOffset+1] = 0
	e.out[outOffset+2] = rightR
	e.out[outOffset+3] = 0
}

func (e *Engine) singleRealTransform4(audio []int16, audioOffset, index, step, outOffset int32) {
	ar := float32(audio[audioOffset+index]) * e.coefficients[index]
	br := float32(audio[audioOffset+index+step]) * e.coefficients[index+step]
	cr := float32(audio[audioOffset+index+2*step]) * e.coefficients[index+2*step]
	dr := float32(audio[audioOffset+index+3*step]) * e.coefficients[index+3*step]

	t0r := ar + cr
	t1r := ar - cr
	t2r := br + dr
	t3r := br - dr

	far := t0r + t2r
	fbr := t1r
	fbi := -t3r
	fcr := t0r - t2r
	fdr := t1r
	fdi := t3r

	e.out[outOffset] = far
	e.out[outOffset+1] = 0
	e.out[outOffset+2] = fbr
	e.out[outOffset+3] = fbi
	e.out[outOffset+4] = fcr
	e.out[outOffset+5] = 0
	e.out[outOffset+6] = fdr
	e.out[outOffset+7] = fdi
}

// Transform computes the log2-magnitude spectrum of audio[audioOffset:audioOffset+Size]
// and writes Size/2 bins into stft starting at stftOffset.
func (e *Engine) Transform(audio []int16, audioOffset int32, stftOut []float32, stftOffset int32) {
	step := int32(1) << uint32(e.width)
	length := (csize / step) << 1

	if length == 4 {
		t := int32(0)
		for outputOffset := int32(0); outputOffset < csize; outputOffset += length {
			e.singleRealTransform2(audio, audioOffset, int32(e.bitReversalTable[t])>>1, step>>1, outputOffset)
			t++
		}
	} else {
		t := int32(0)
		for outputOffset := int32(0); outputOffset < csize; outputOffset += length {
			e.singleRealTransform4(audio, audioOffset, int32(e.bitReversalTable[t])>>1, step>>1, outputOffset)
			t++
		}
	}

	for step >>= 2; step >= 2; step >>= 2 {
		length = (csize / step) << 1

		halfLen := length >> 1
		quarterLen := halfLen >> 1
		halfQuarterLen := quarterLen >> 1

		for outputOffset := int32(0); outputOffset < csize; outputOffset += length {
			k := int32(0)
			for i := int32(0); i <= halfQuarterLen; i += 2 {
				a := outputOffset + i
				b := a + quarterLen
				c := b + quarterLen
				d := c + quarterLen

				ar, ai := e.out[a], e.out[a+1]
				br, bi := e.out[b], e.out[b+1]
				cr, ci := e.out[c], e.out[c+1]
				dr, di := e.out[d], e.out[d+1]

				mar, mai := ar, ai

				tableBr, tableBi := e.trigonometryTable[k], e.trigonometryTable[k+1]
				mbr := br*tableBr - bi*tableBi
				mbi := br*tableBi + bi*tableBr

				tableCr, tableCi := e.trigonometryTable[2*k], e.trigonometryTable[2*k+1]
				mcr := cr*tableCr - ci*tableCi
				mci := cr*tableCi + ci*tableCr

				tableDr, tableDi := e.trigonometryTable[3*k], e.trigonometryTable[3*k+1]
				mdr := dr*tableDr - di*tableDi
				mdi := dr*tableDi + di*tableDr

				t0r := mar + mcr
				t0i := mai + mci
				t1r := mar - mcr
				t1i := mai - mci
				t2r := mbr + mdr
				t2i := mbi + mdi
				t3r := mbr - mdr
				t3i := mbi - mdi

				far := t0r + t2r
				fai := t0i + t2i

				fbr := t1r + t3i
				fbi := t1i - t3r

				e.out[a] = far
				e.out[a+1] = fai
				e.out[b] = fbr
				e.out[b+1] = fbi

				if i == 0 {
					e.out[c] = t0r - t2r
					e.out[c+1] = t0i - t2i
					k += step
					continue
				}

				if i == halfQuarterLen {
					k += step
					continue
				}

				st0r := t1r
				st0i := -t1i
				st1r := t0r
				st1i := -t0i
				st2r := -t3i
				st2i := -t3r
				st3r := -t2i
				st3i := -t2r

				sfar := st0r + st2r
				sfai := st0i + st2i

				sfbr := st1r + st3i
				sfbi := st1i - st3r

				sa := outputOffset + quarterLen - i
				sb := outputOffset + halfLen - i

				e.out[sa] = sfar
				e.out[sa+1] = sfai
				e.out[sb] = sfbr
				e.out[sb+1] = sfbi

				k += step
			}
		}
	}

	for k := int32(0); k < Size/2; k++ {
		real := e.out[2*k]
		imag := e.out[2*k+1]

		magnitudeSquared := 4.0 / float32(Size) / float32(Size) * (real*real + imag*imag)

		stftOut[stftOffset+k] = float32(math.Log2(float64(magnitudeSquared))) / 2.0
	}
}
