package docconv

import "context"

// ConvertBatch fans the items out over the shared worker pool and returns
// one outcome per item, aligned by input index regardless of completion
// order. Items that fail admission get their failure outcome immediately
// and never consume a workspace or slot; one item's failure does not
// affect its siblings.
//
// The caller owns every successful Result in the returned slice and must
// Close each after use.
func (c *Converter) ConvertBatch(ctx context.Context, items []BatchItem) []Outcome {
	outcomes := make([]Outcome, len(items))
	waiting := make([]<-chan Outcome, len(items))

	for i, item := range items {
		ext, err := c.gate.Admit(item.Filename, int64(len(item.Payload)))
		if err != nil {
			outcomes[i] = Outcome{Err: err}
			continue
		}
		job := newJob(item.Filename, ext, item.Payload)
		outcomes[i] = Outcome{JobID: job.ID}
		waiting[i] = c.sched.Submit(ctx, job)
	}

	for i, ch := range waiting {
		if ch == nil {
			continue // rejected at admission
		}
		outcomes[i] = <-ch
	}

	return outcomes
}
