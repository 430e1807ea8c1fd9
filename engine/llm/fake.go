package llm

import "context"

// Fake is an in-memory Gateway for tests: it replays Responses in order,
// repeating the last one once they run out, and records every request it saw.
type Fake struct {
	Responses []Response
	Err       error
	Requests  []Request
	next      int
}

var _ Gateway = (*Fake)(nil)

// NewFake returns a Fake that replays responses in order, repeating the
// last one once exhausted.
func NewFake(responses ...Response) *Fake {
	return &Fake{Responses: responses}
}

func (f *Fake) CreateStructuredOutput(ctx context.Context, req Request) (Response, error) {
	f.Requests = append(f.Requests, req)
	if f.Err != nil {
		return Response{}, f.Err
	}
	if len(f.Responses) == 0 {
		return Response{}, nil
	}
	idx := f.next
	if idx >= len(f.Responses) {
		idx = len(f.Responses) - 1
	} else {
		f.next++
	}
	return f.Responses[idx], nil
}
