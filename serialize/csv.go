package serialize

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"go.viam.com/trajgen/trajectory"
)

// CSVHeader is the first record of a trajectory CSV file.
var CSVHeader = []string{"dt", "x", "y", "position", "velocity", "acceleration", "jerk", "heading"}

// CSVSuffix is the conventional file suffix for trajectory CSV files.
const CSVSuffix = ".pf1.csv"

// WriteCSV writes traj as CSVHeader followed by one record per segment. Values use the
// shortest representation that parses back to the same float64.
func WriteCSV(w io.Writer, traj *trajectory.Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	record := make([]string, fieldCount)
	for i := 0; i < traj.Len(); i++ {
		for f, v := range traj.At(i).Fields() {
			record[f] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a trajectory written by WriteCSV.
func ReadCSV(r io.Reader) (*trajectory.Trajectory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fieldCount
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(ErrMalformed, "reading csv header: "+err.Error())
	}
	for i, name := range CSVHeader {
		if header[i] != name {
			return nil, errors.Wrapf(ErrMalformed, "csv column %d is %q, expected %q", i, header[i], name)
		}
	}

	var segs []trajectory.Segment
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(ErrMalformed, err.Error())
		}
		var fields [fieldCount]float64
		for f, s := range record {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.Wrapf(ErrMalformed, "line %d, column %s: %v", line, CSVHeader[f], err)
			}
			fields[f] = v
		}
		segs = append(segs, trajectory.SegmentFromFields(fields))
	}
	return trajectory.New(segs), nil
}
