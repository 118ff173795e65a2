// Package serialize reads and writes trajectories. Every format round trips exactly: a
// trajectory read back is Equals to the one written.
package serialize

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/trajgen/trajectory"
)

// ErrMalformed is wrapped by every decoding error caused by bad input rather than I/O.
var ErrMalformed = errors.New("serialize: malformed trajectory data")

const (
	fieldCount   = 8
	segmentBytes = fieldCount * 8
	// maxPrealloc bounds the capacity reserved from an untrusted segment count.
	maxPrealloc = 1 << 16
)

// WriteBinary writes traj as a big-endian int32 segment count followed by eight big-endian
// float64 fields per segment, in Segment.Fields order.
func WriteBinary(w io.Writer, traj *trajectory.Trajectory) error {
	if traj.Len() > math.MaxInt32 {
		return errors.Errorf("trajectory of %d segments is too long to encode", traj.Len())
	}
	buf := make([]byte, segmentBytes)
	binary.BigEndian.PutUint32(buf, uint32(traj.Len()))
	if _, err := w.Write(buf[:4]); err != nil {
		return err
	}
	for i := 0; i < traj.Len(); i++ {
		for f, v := range traj.At(i).Fields() {
			binary.BigEndian.PutUint64(buf[f*8:], math.Float64bits(v))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// ReadBinary reads a trajectory written by WriteBinary.
func ReadBinary(r io.Reader) (*trajectory.Trajectory, error) {
	buf := make([]byte, segmentBytes)
	if _, err := io.ReadFull(r, buf[:4]); err != nil {
		return nil, errors.Wrap(ErrMalformed, "reading segment count: "+err.Error())
	}
	count := int32(binary.BigEndian.Uint32(buf))
	if count < 0 {
		return nil, errors.Wrapf(ErrMalformed, "negative segment count %d", count)
	}

	segs := make([]trajectory.Segment, 0, min(int(count), maxPrealloc))
	for i := 0; i < int(count); i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrapf(ErrMalformed, "reading segment %d of %d: %v", i, count, err)
		}
		var fields [fieldCount]float64
		for f := range fields {
			fields[f] = math.Float64frombits(binary.BigEndian.Uint64(buf[f*8:]))
		}
		segs = append(segs, trajectory.SegmentFromFields(fields))
	}
	return trajectory.New(segs), nil
}
