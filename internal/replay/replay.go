package replay

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/2beens/formcheck/internal/engine"
	"github.com/2beens/formcheck/internal/pose"
	"github.com/2beens/formcheck/internal/session"

	log "github.com/sirupsen/logrus"
)

type Result struct {
	Frames   int
	Last     engine.Output
	Summary  session.Summary
	Complete bool
}

// Run feeds every frame read from frames to p and prints outputs to w: all
// of them with printAll, otherwise only those that counted a rep.
func Run(ctx context.Context, frames io.Reader, p Processor, w io.Writer, printAll bool) (*Result, error) {
	res := &Result{}
	err := ReadFrames(frames, func(f *pose.Frame) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := p.Process(ctx, f)
		if err != nil {
			return err
		}
		res.Frames++

		if printAll || out.RepCount != res.Last.RepCount {
			if _, err := fmt.Fprintln(w, FormatOutput(f.TimestampMs, out)); err != nil {
				return err
			}
		}
		res.Last = out
		return nil
	})
	if err != nil {
		return res, err
	}

	res.Summary, res.Complete, err = p.Summary(ctx)
	if err != nil {
		return res, fmt.Errorf("get summary: %w", err)
	}
	log.Debugf("replayed %d frames, %d reps", res.Frames, res.Summary.TotalReps)
	return res, nil
}

func FormatOutput(ts int64, out engine.Output) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%8dms  reps %d (clean %d)  view %-5s  %-10s  depth %.2f",
		ts, out.RepCount, out.CleanRepCount, out.View, out.Phase, out.DepthProgress)
	if out.RepCount > 0 {
		fmt.Fprintf(&b, "  last %d%%  overall %d%%  risk %s", out.LastRepScorePercent, out.OverallScorePercent, out.RiskCategory)
	}
	fmt.Fprintf(&b, "  | %s", out.PrimaryFeedback)
	if out.SpokenMessage != "" {
		fmt.Fprintf(&b, "  > %q", out.SpokenMessage)
	}
	return b.String()
}

func FormatSummary(s session.Summary, complete bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "reps: %d, clean: %d, complete: %t\n", s.TotalReps, s.CleanReps, complete)
	fmt.Fprintf(&b, "average score: %d%%, best: %d%%, worst: %d%%\n", s.AverageScore, s.BestRepScore, s.WorstRepScore)
	if s.MostFrequentIssue != "" {
		fmt.Fprintf(&b, "most frequent issue: %s\n", s.MostFrequentIssue)
	}
	return b.String()
}
