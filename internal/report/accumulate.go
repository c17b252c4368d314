package report

import (
	"context"
	"time"

	"neuromatch/internal/types"
)

// Collect drains events into a Report. Keep-alive events are ignored and
// the report is complete only if the done event was received.
func Collect(events <-chan types.Event) *types.Report {
	rep := &types.Report{
		Sections: map[string]types.SectionResult{},
	}

	for ev := range events {
		if rep.RunID == "" {
			rep.RunID = ev.RunID
		}
		switch ev.Type {
		case types.EventSection, types.EventSectionError:
			rep.Sections[ev.Section] = types.SectionResult{
				Phase:  ev.Phase,
				Status: ev.Status,
				Data:   ev.Data,
				Error:  ev.Error,
			}
		case types.EventDone:
			rep.Complete = true
			rep.ElapsedMS = ev.ElapsedMS
			if ev.Summary != nil {
				rep.Mode = ev.Summary.Mode
				rep.PreAnalysis = ev.Summary.PreAnalysis
			}
		}
	}

	rep.GeneratedAt = time.Now().UTC()
	return rep
}

// Generate runs a report to completion and returns it assembled
func (o *Orchestrator) Generate(ctx context.Context, req types.ReportRequest) (*types.Report, error) {
	events, err := o.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	rep := Collect(events)
	if !rep.Complete {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
	}
	return rep, nil
}
