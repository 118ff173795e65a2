package serialize

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"

	"go.viam.com/trajgen/trajectory"
	"go.viam.com/trajgen/utils"
)

// Table renders every n-th segment of traj, and always the last one, as a text table. Headings
// are shown in degrees.
func Table(traj *trajectory.Trajectory, every int) string {
	if every < 1 {
		every = 1
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "t", "X", "Y", "Position", "Velocity", "Acceleration", "Jerk", "Heading"})
	var elapsed float64
	for i := 0; i < traj.Len(); i++ {
		seg := traj.At(i)
		if i > 0 {
			elapsed += seg.DT
		}
		if i%every != 0 && i != traj.Len()-1 {
			continue
		}
		t.AppendRow(table.Row{
			i,
			fmt.Sprintf("%.3f", elapsed),
			fmt.Sprintf("%.3f", seg.X),
			fmt.Sprintf("%.3f", seg.Y),
			fmt.Sprintf("%.3f", seg.Position),
			fmt.Sprintf("%.3f", seg.Velocity),
			fmt.Sprintf("%.3f", seg.Acceleration),
			fmt.Sprintf("%.2f", seg.Jerk),
			fmt.Sprintf("%.1f", utils.RadToDeg(seg.Heading)),
		})
	}
	return t.Render()
}

// Summary describes a trajectory as a whole.
type Summary struct {
	Segments        int
	Duration        float64
	Length          float64
	MaxVelocity     float64
	MaxAcceleration float64
	MaxJerk         float64
}

// Summarize computes the Summary of traj. Maxima are of absolute values.
func Summarize(traj *trajectory.Trajectory) Summary {
	s := Summary{Segments: traj.Len(), Duration: traj.Duration(), Length: traj.Length()}
	for i := 0; i < traj.Len(); i++ {
		seg := traj.At(i)
		s.MaxVelocity = math.Max(s.MaxVelocity, math.Abs(seg.Velocity))
		s.MaxAcceleration = math.Max(s.MaxAcceleration, math.Abs(seg.Acceleration))
		s.MaxJerk = math.Max(s.MaxJerk, math.Abs(seg.Jerk))
	}
	return s
}

// String renders the summary as a two column table.
func (s Summary) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Property", "Value"})
	t.AppendRows([]table.Row{
		{"Segments", s.Segments},
		{"Duration (s)", fmt.Sprintf("%.3f", s.Duration)},
		{"Length", fmt.Sprintf("%.4f", s.Length)},
		{"Peak velocity", fmt.Sprintf("%.4f", s.MaxVelocity)},
		{"Peak acceleration", fmt.Sprintf("%.4f", s.MaxAcceleration)},
		{"Peak jerk", fmt.Sprintf("%.4f", s.MaxJerk)},
	})
	return t.Render()
}
