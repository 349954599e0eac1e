package inkwell_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inkwell "github.com/inkwellhq/inkwell.go"
	"github.com/inkwellhq/inkwell.go/pkg/transport"
)

func TestSubmitConsultationIsUnauthenticated(t *testing.T) {
	m, c := newTestClient(t, false)
	m.Handle(http.MethodPost, "/api/consultations", func(req *transport.Request) (any, error) {
		assert.False(t, req.Auth, "visitors submit without a token")
		in, ok := req.Body.(inkwell.ConsultationInput)
		require.True(t, ok)
		assert.Equal(t, "Ada", in.Name)
		return map[string]any{"success": true}, nil
	})

	err := c.Consultations.Submit(context.Background(), inkwell.ConsultationInput{
		Name: "Ada", Email: "ada@example.com", Message: "Hello",
	})
	require.NoError(t, err)
}

func TestConsultationsPagination(t *testing.T) {
	m, c := newTestClient(t, true)
	m.Handle(http.MethodGet, "/api/consultations", func(req *transport.Request) (any, error) {
		assert.Equal(t, "20", req.Query.Get("limit"))
		assert.True(t, req.Auth)
		if req.Query.Get("lastId") == "" {
			return map[string]any{
				"success":       true,
				"consultations": []inkwell.Consultation{{ID: "c1"}, {ID: "c2"}},
				"hasMore":       true,
				"nextLastId":    "c2",
			}, nil
		}
		return map[string]any{
			"success":       true,
			"consultations": []inkwell.Consultation{{ID: "c3"}},
			"hasMore":       false,
			"nextLastId":    "",
		}, nil
	})

	ctx := context.Background()
	require.NoError(t, c.Consultations.FetchNext(ctx, false))
	require.NoError(t, c.Consultations.FetchNext(ctx, false))

	items := c.Consultations.Requests().Items()
	require.Len(t, items, 3)
	assert.False(t, c.Consultations.Requests().HasMore())

	before := m.Total()
	require.NoError(t, c.Consultations.FetchNext(ctx, false))
	assert.Equal(t, before, m.Total(), "exhausted list must not fetch again")
}

func TestConsultationsFetchRequiresAuth(t *testing.T) {
	m, c := newTestClient(t, false)
	err := c.Consultations.FetchNext(context.Background(), false)
	assert.ErrorIs(t, err, inkwell.ErrAuthRequired)
	assert.Zero(t, m.Total())
}

func TestUpdateConsultationStatus(t *testing.T) {
	m, c := newTestClient(t, true)
	m.Reply(http.MethodGet, "/api/consultations", map[string]any{
		"success":       true,
		"consultations": []inkwell.Consultation{{ID: "c1", Status: inkwell.ConsultationPending}},
		"hasMore":       false,
	})
	require.NoError(t, c.Consultations.FetchNext(context.Background(), false))

	m.Reply(http.MethodPut, "/api/consultations/c1/status", map[string]any{
		"success":      true,
		"consultation": inkwell.Consultation{ID: "c1", Status: inkwell.ConsultationResolved},
	})

	fetches := m.Calls(http.MethodGet, "/api/consultations")
	updated, err := c.Consultations.UpdateStatus(context.Background(), "c1", inkwell.ConsultationResolved)
	require.NoError(t, err)
	assert.Equal(t, inkwell.ConsultationResolved, updated.Status)

	items := c.Consultations.Requests().Items()
	require.Len(t, items, 1)
	assert.Equal(t, inkwell.ConsultationResolved, items[0].Status, "patched in place")
	assert.Equal(t, fetches, m.Calls(http.MethodGet, "/api/consultations"), "no refetch after update")
}

func TestUpdateConsultationStatusErrors(t *testing.T) {
	t.Run("requires auth", func(t *testing.T) {
		m, c := newTestClient(t, false)
		_, err := c.Consultations.UpdateStatus(context.Background(), "c1", inkwell.ConsultationResolved)
		assert.ErrorIs(t, err, inkwell.ErrAuthRequired)
		assert.Zero(t, m.Total())
	})

	t.Run("404 maps to domain message", func(t *testing.T) {
		m, c := newTestClient(t, true)
		m.Fail(http.MethodPut, "/api/consultations/gone/status", &transport.APIError{StatusCode: 404})

		_, err := c.Consultations.UpdateStatus(context.Background(), "gone", inkwell.ConsultationResolved)
		require.Error(t, err)
		assert.Equal(t, "Consultation request not found", err.Error())
	})
}
