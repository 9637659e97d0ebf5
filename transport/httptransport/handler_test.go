package httptransport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dogmatiq/psikit/aggregate"
	"github.com/dogmatiq/psikit/dispatch"
	"github.com/dogmatiq/psikit/driver/memory/memoryaggregate"
	. "github.com/dogmatiq/psikit/transport/httptransport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	newServer := func(t *testing.T, s aggregate.Store) *httptest.Server {
		srv := httptest.NewServer(
			NewRouter(
				&dispatch.Dispatcher{
					Store:  s,
					Limits: dispatch.DefaultLimits,
				},
				0,
			),
		)
		t.Cleanup(srv.Close)
		return srv
	}

	post := func(t *testing.T, srv *httptest.Server, path, body string, out any) int {
		t.Helper()

		res, err := http.Post(srv.URL+path, "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		defer res.Body.Close()

		assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

		if out != nil {
			require.NoError(t, json.NewDecoder(res.Body).Decode(out))
		}

		return res.StatusCode
	}

	t.Run("it serves the protocol walkthrough", func(t *testing.T) {
		srv := newServer(t, memoryaggregate.NewStore(2))

		var jr JoinResponse
		require.Equal(t, http.StatusOK, post(t, srv, "/v1/join", `{"set_id":"g1","elements":["a","b","c"]}`, &jr))
		assert.Equal(t, JoinResponse{Accepted: true}, jr)

		jr = JoinResponse{}
		require.Equal(t, http.StatusOK, post(t, srv, "/v1/join", `{"set_id":"g1","elements":["b","c","d"]}`, &jr))
		assert.Equal(t, JoinResponse{Accepted: true}, jr)

		jr = JoinResponse{}
		require.Equal(t, http.StatusOK, post(t, srv, "/v1/join", `{"set_id":"g1","elements":["b"]}`, &jr))
		assert.Equal(t, JoinResponse{Reason: "threshold_reached"}, jr)

		var gr GetResultResponse
		require.Equal(t, http.StatusOK, post(t, srv, "/v1/get-result", `{"set_id":"g1"}`, &gr))
		assert.Equal(t, []string{"b", "c"}, gr.Intersection)

		jr = JoinResponse{}
		require.Equal(t, http.StatusOK, post(t, srv, "/v1/join", `{"set_id":"g1","elements":["x"]}`, &jr))
		assert.Equal(t, JoinResponse{Reason: "locked"}, jr)

		gr = GetResultResponse{}
		require.Equal(t, http.StatusOK, post(t, srv, "/v1/get-result", `{"set_id":"g1"}`, &gr))
		assert.Equal(t, []string{"b", "c"}, gr.Intersection)
	})

	t.Run("it encodes an empty intersection as an empty list", func(t *testing.T) {
		srv := newServer(t, memoryaggregate.NewStore(2))

		post(t, srv, "/v1/join", `{"set_id":"g1","elements":["a"]}`, nil)
		post(t, srv, "/v1/join", `{"set_id":"g1","elements":[]}`, nil)

		var raw map[string]json.RawMessage
		require.Equal(t, http.StatusOK, post(t, srv, "/v1/get-result", `{"set_id":"g1"}`, &raw))
		assert.JSONEq(t, `[]`, string(raw["intersection"]))
	})

	t.Run("it responds with 404 for an unknown set ID", func(t *testing.T) {
		srv := newServer(t, memoryaggregate.NewStore(2))

		var er ErrorResponse
		require.Equal(t, http.StatusNotFound, post(t, srv, "/v1/get-result", `{"set_id":"unknown"}`, &er))
		assert.NotEmpty(t, er.Error)
		assert.NotEmpty(t, er.RequestID)
	})

	t.Run("it responds with 400 for a malformed request", func(t *testing.T) {
		cases := []struct {
			Desc string
			Path string
			Body string
		}{
			{"invalid JSON", "/v1/join", `{`},
			{"wrong shape", "/v1/join", `{"set_id":"g1","elements":"a"}`},
			{"unknown field", "/v1/get-result", `{"set_id":"g1","extra":1}`},
			{"trailing data", "/v1/get-result", `{"set_id":"g1"} {}`},
			{"missing set ID", "/v1/get-result", `{}`},
			{"missing elements", "/v1/join", `{"set_id":"g1"}`},
		}

		srv := newServer(t, memoryaggregate.NewStore(2))

		for _, c := range cases {
			t.Run(c.Desc, func(t *testing.T) {
				var er ErrorResponse
				assert.Equal(t, http.StatusBadRequest, post(t, srv, c.Path, c.Body, &er))
				assert.NotEmpty(t, er.Error)
			})
		}
	})

	t.Run("it responds with 500 without exposing the cause of a store failure", func(t *testing.T) {
		srv := newServer(t, failingStore{})

		var er ErrorResponse
		require.Equal(t, http.StatusInternalServerError, post(t, srv, "/v1/get-result", `{"set_id":"g1"}`, &er))
		assert.NotContains(t, er.Error, "<secret>")
	})

	t.Run("it serves a health check", func(t *testing.T) {
		srv := newServer(t, memoryaggregate.NewStore(2))

		res, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer res.Body.Close()

		assert.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("it rejects other methods", func(t *testing.T) {
		srv := newServer(t, memoryaggregate.NewStore(2))

		res, err := http.Get(srv.URL + "/v1/join")
		require.NoError(t, err)
		defer res.Body.Close()

		assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
	})
}

type failingStore struct{}

func (failingStore) Contribute(context.Context, string, []string) (aggregate.Contribution, error) {
	return aggregate.Contribution{}, errors.New("<secret>")
}

func (failingStore) Retrieve(context.Context, string) (aggregate.Retrieval, error) {
	return aggregate.Retrieval{}, errors.New("<secret>")
}
