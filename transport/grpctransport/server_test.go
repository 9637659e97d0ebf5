package grpctransport_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/dogmatiq/psikit/aggregate"
	"github.com/dogmatiq/psikit/dispatch"
	"github.com/dogmatiq/psikit/driver/memory/memoryaggregate"
	. "github.com/dogmatiq/psikit/transport/grpctransport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestServer(t *testing.T) {
	newConn := func(t *testing.T, s aggregate.Store) *grpc.ClientConn {
		lis := bufconn.Listen(1 << 20)

		srv := grpc.NewServer()
		RegisterSetIntersectionServer(
			srv,
			&Server{
				Dispatcher: &dispatch.Dispatcher{
					Store:  s,
					Limits: dispatch.DefaultLimits,
				},
			},
		)

		go srv.Serve(lis)
		t.Cleanup(srv.Stop)

		conn, err := grpc.NewClient(
			"passthrough:///bufnet",
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })

		return conn
	}

	t.Run("it serves the protocol walkthrough", func(t *testing.T) {
		client := NewClient(newConn(t, memoryaggregate.NewStore(2)))
		ctx := t.Context()

		jr, err := client.Join(ctx, "g1", []string{"a", "b", "c"})
		require.NoError(t, err)
		assert.Equal(t, dispatch.JoinResponse{Accepted: true}, jr)

		jr, err = client.Join(ctx, "g1", []string{"b", "c", "d"})
		require.NoError(t, err)
		assert.Equal(t, dispatch.JoinResponse{Accepted: true}, jr)

		jr, err = client.Join(ctx, "g1", []string{"b"})
		require.NoError(t, err)
		assert.Equal(t, dispatch.JoinResponse{Reason: "threshold_reached"}, jr)

		gr, err := client.GetResult(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, gr.Intersection)

		jr, err = client.Join(ctx, "g1", []string{"x"})
		require.NoError(t, err)
		assert.Equal(t, dispatch.JoinResponse{Reason: "locked"}, jr)

		gr, err = client.GetResult(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, gr.Intersection)
	})

	t.Run("it returns an empty intersection as an empty list", func(t *testing.T) {
		client := NewClient(newConn(t, memoryaggregate.NewStore(2)))

		_, err := client.Join(t.Context(), "g1", []string{"a"})
		require.NoError(t, err)
		_, err = client.Join(t.Context(), "g1", nil)
		require.NoError(t, err)

		gr, err := client.GetResult(t.Context(), "g1")
		require.NoError(t, err)
		assert.NotNil(t, gr.Intersection)
		assert.Empty(t, gr.Intersection)
	})

	t.Run("it returns NotFound for an unknown set ID", func(t *testing.T) {
		conn := newConn(t, memoryaggregate.NewStore(2))

		_, err := NewClient(conn).GetResult(t.Context(), "unknown")
		assert.True(t, dispatch.IsNotFound(err), "expected not found error, got %v", err)
	})

	t.Run("it returns InvalidArgument for a malformed request", func(t *testing.T) {
		conn := newConn(t, memoryaggregate.NewStore(2))

		cases := []struct {
			Desc    string
			Method  string
			Request map[string]any
		}{
			{"missing set ID", "GetResult", map[string]any{}},
			{"set ID of the wrong type", "GetResult", map[string]any{"set_id": 1}},
			{"missing elements", "Join", map[string]any{"set_id": "g1"}},
			{"elements of the wrong type", "Join", map[string]any{"set_id": "g1", "elements": "a"}},
			{"non-string element", "Join", map[string]any{"set_id": "g1", "elements": []any{"a", true}}},
		}

		for _, c := range cases {
			t.Run(c.Desc, func(t *testing.T) {
				in, err := structpb.NewStruct(c.Request)
				require.NoError(t, err)

				err = conn.Invoke(t.Context(), "/"+ServiceName+"/"+c.Method, in, &structpb.Struct{})
				assert.Equal(t, codes.InvalidArgument, status.Code(err))
			})
		}

		_, err := NewClient(conn).Join(t.Context(), "", []string{"a"})
		assert.True(t, dispatch.IsMalformed(err), "expected malformed request error, got %v", err)
	})

	t.Run("it returns Internal without exposing the cause of a store failure", func(t *testing.T) {
		conn := newConn(t, failingStore{})

		_, err := NewClient(conn).GetResult(t.Context(), "g1")
		require.Error(t, err)
		assert.Equal(t, codes.Internal, status.Code(err))
		assert.NotContains(t, err.Error(), "<secret>")
	})

	t.Run("it invokes server interceptors", func(t *testing.T) {
		lis := bufconn.Listen(1 << 20)

		var methods []string
		srv := grpc.NewServer(
			grpc.UnaryInterceptor(func(
				ctx context.Context,
				req any,
				info *grpc.UnaryServerInfo,
				handler grpc.UnaryHandler,
			) (any, error) {
				methods = append(methods, info.FullMethod)
				return handler(ctx, req)
			}),
		)
		RegisterSetIntersectionServer(
			srv,
			&Server{
				Dispatcher: &dispatch.Dispatcher{Store: memoryaggregate.NewStore(1)},
			},
		)
		go srv.Serve(lis)
		defer srv.Stop()

		conn, err := grpc.NewClient(
			"passthrough:///bufnet",
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		require.NoError(t, err)
		defer conn.Close()

		client := NewClient(conn)
		_, err = client.Join(t.Context(), "g1", []string{"a"})
		require.NoError(t, err)
		_, err = client.GetResult(t.Context(), "g1")
		require.NoError(t, err)

		assert.Equal(
			t,
			[]string{
				"/psikit.v1.SetIntersection/Join",
				"/psikit.v1.SetIntersection/GetResult",
			},
			methods,
		)
	})
}

type failingStore struct{}

func (failingStore) Contribute(context.Context, string, []string) (aggregate.Contribution, error) {
	return aggregate.Contribution{}, errors.New("<secret>")
}

func (failingStore) Retrieve(context.Context, string) (aggregate.Retrieval, error) {
	return aggregate.Retrieval{}, errors.New("<secret>")
}
