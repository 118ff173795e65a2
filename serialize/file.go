package serialize

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/trajgen/trajectory"
)

// Format names an encoding.
type Format int

// Supported formats.
const (
	FormatBinary Format = iota
	FormatCSV
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatCSV:
		return "csv"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// FormatFor picks the format for a file name by suffix: .csv is CSV, .msgpack or .mpk is
// MessagePack and anything else is binary. A trailing .gz is ignored.
func FormatFor(path string) Format {
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".gz")))
	switch ext {
	case ".csv":
		return FormatCSV
	case ".msgpack", ".mpk":
		return FormatMsgpack
	default:
		return FormatBinary
	}
}

// Write encodes traj to w in format f.
func Write(w io.Writer, f Format, traj *trajectory.Trajectory) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, traj)
	case FormatMsgpack:
		return WriteMsgpack(w, traj)
	case FormatBinary:
		return WriteBinary(w, traj)
	default:
		return errors.Errorf("unknown format %d", int(f))
	}
}

// Read decodes a trajectory in format f from r.
func Read(r io.Reader, f Format) (*trajectory.Trajectory, error) {
	switch f {
	case FormatCSV:
		return ReadCSV(r)
	case FormatMsgpack:
		return ReadMsgpack(r)
	case FormatBinary:
		return ReadBinary(r)
	default:
		return nil, errors.Errorf("unknown format %d", int(f))
	}
}

// WriteFile writes traj to path in the format chosen by FormatFor, gzip compressed if path
// ends in .gz.
func WriteFile(path string, traj *trajectory.Trajectory) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	buf := bufio.NewWriter(f)
	var out io.Writer = buf
	var gout *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gout = gzip.NewWriter(buf)
		out = gout
	}
	if err := Write(out, FormatFor(path), traj); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	if gout != nil {
		if err := gout.Close(); err != nil {
			return err
		}
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// ReadFile reads a trajectory written by WriteFile.
func ReadFile(path string) (traj *trajectory.Trajectory, err error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	var in io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		gin, gzErr := gzip.NewReader(in)
		if gzErr != nil {
			return nil, errors.Wrap(ErrMalformed, gzErr.Error())
		}
		defer func() {
			err = multierr.Combine(err, gin.Close())
		}()
		in = gin
	}
	traj, err = Read(in, FormatFor(path))
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return traj, nil
}
