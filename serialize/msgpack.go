package serialize

import (
	"io"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"go.viam.com/trajgen/trajectory"
)

// WriteMsgpack writes traj as a MessagePack array of eight element float64 arrays.
func WriteMsgpack(w io.Writer, traj *trajectory.Trajectory) error {
	rows := make([][fieldCount]float64, traj.Len())
	for i := range rows {
		rows[i] = traj.At(i).Fields()
	}
	enc := msgpack.NewEncoder(w)
	return enc.Encode(rows)
}

// ReadMsgpack reads a trajectory written by WriteMsgpack.
func ReadMsgpack(r io.Reader) (*trajectory.Trajectory, error) {
	var rows [][fieldCount]float64
	if err := msgpack.NewDecoder(r).Decode(&rows); err != nil {
		return nil, errors.Wrap(ErrMalformed, "decoding msgpack: "+err.Error())
	}
	segs := make([]trajectory.Segment, len(rows))
	for i, row := range rows {
		segs[i] = trajectory.SegmentFromFields(row)
	}
	return trajectory.New(segs), nil
}
