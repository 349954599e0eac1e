package inkwell

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/inkwellhq/inkwell.go/pkg/feed"
	"github.com/inkwellhq/inkwell.go/pkg/logger"
	"github.com/inkwellhq/inkwell.go/pkg/token"
	"github.com/inkwellhq/inkwell.go/pkg/transport"
)

const consultationPageSize = 20

// ConsultationStore manages visitor consultation requests: visitors submit
// them unauthenticated, admins page through them and update their status.
type ConsultationStore struct {
	t      transport.Transport
	tokens token.Store
	log    logger.Logger

	list *feed.Collection[Consultation]
}

// NewConsultationStore creates a ConsultationStore on the given transport.
func NewConsultationStore(t transport.Transport, tokens token.Store, log logger.Logger) *ConsultationStore {
	if log == nil {
		log = logger.Nop{}
	}
	return &ConsultationStore{
		t:      t,
		tokens: tokens,
		log:    log,
		list:   feed.New(func(c Consultation) string { return c.ID }),
	}
}

// Submit sends a consultation request. This is the one unauthenticated
// mutation in the API: any visitor may submit.
func (s *ConsultationStore) Submit(ctx context.Context, in ConsultationInput) error {
	return s.t.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   "/api/consultations",
		Body:   in,
	}, nil)
}

// FetchNext appends the next page of consultation requests. Admin only.
func (s *ConsultationStore) FetchNext(ctx context.Context, reset bool) error {
	if err := requireToken(s.tokens); err != nil {
		return err
	}
	if reset {
		s.list.Reset()
	}
	epoch, ok := s.list.Begin(true)
	if !ok {
		return nil
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(consultationPageSize))
	if cur := s.list.Cursor(); cur != "" {
		q.Set("lastId", cur)
	}
	var resp consultationsPageResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/api/consultations",
		Query:  q,
		Auth:   true,
	}, &resp)
	if err != nil {
		s.list.Fail(epoch, err.Error())
		s.log.Warn("consultations fetch failed", "err", err)
		return err
	}
	s.list.ApplyBatch(epoch, resp.Consultations, resp.NextLastID, resp.HasMore)
	return nil
}

// UpdateStatus changes one request's status and patches it in place.
func (s *ConsultationStore) UpdateStatus(ctx context.Context, id, status string) (*Consultation, error) {
	if err := requireToken(s.tokens); err != nil {
		return nil, err
	}
	var resp consultationResponse
	err := s.t.Do(ctx, &transport.Request{
		Method: http.MethodPut,
		Path:   "/api/consultations/" + id + "/status",
		Body:   map[string]string{"status": status},
		Auth:   true,
	}, &resp)
	if err != nil {
		return nil, notFoundOr(err, "Consultation request")
	}
	s.list.ReplaceByID(resp.Consultation)
	return &resp.Consultation, nil
}

// Requests returns the consultation request collection.
func (s *ConsultationStore) Requests() *feed.Collection[Consultation] {
	return s.list
}
