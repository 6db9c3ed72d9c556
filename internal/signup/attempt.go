package signup

import (
	"context"

	"sattelclub/internal/core"
)

// Response is what a Transport returns for a completed HTTP exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport posts a form-encoded body. Errors are reserved for failures
// where no response was received.
type Transport interface {
	PostForm(ctx context.Context, url string, fields map[string]string) (*Response, error)
}

// Attempt submits one signup for one participant. It never retries.
type Attempt struct {
	transport Transport
}

func NewAttempt(transport Transport) *Attempt {
	return &Attempt{transport: transport}
}

// FormFields builds the signup form for p and target.
func FormFields(p core.Participant, target core.Target) map[string]string {
	return map[string]string{
		"firstName":     p.FirstName,
		"lastName":      p.LastName,
		"email":         p.Email,
		"slug":          target.Slug(),
		"termsCheckbox": "on",
	}
}

// Run posts the form and returns the raw result. Transport errors, non-2xx
// statuses and malformed bodies are returned as values.
func (a *Attempt) Run(ctx context.Context, p core.Participant, target core.Target) RawOutcome {
	ctx = core.ContextWithParticipant(ctx, p.Email)

	resp, err := a.transport.PostForm(ctx, target.ServiceURL, FormFields(p, target))
	if err != nil {
		return TransportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return HTTPStatus(resp.StatusCode)
	}

	reply, err := ParseReply(resp.Body)
	if err != nil {
		return MalformedBody(resp.StatusCode, err, resp.Body)
	}
	return ReplyOutcome(reply)
}

// Sign runs one attempt and classifies the result.
func (a *Attempt) Sign(ctx context.Context, p core.Participant, target core.Target) Outcome {
	return Classify(a.Run(ctx, p, target))
}
