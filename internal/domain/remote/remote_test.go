package remote

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubInvoker struct {
	invokeFn func(ctx context.Context, name string, payload any) (json.RawMessage, error)
}

func (s stubInvoker) Invoke(ctx context.Context, name string, payload any) (json.RawMessage, error) {
	return s.invokeFn(ctx, name, payload)
}

type scorePayload struct {
	Score int `json:"score"`
}

func TestCall_DecodesValue(t *testing.T) {
	inv := stubInvoker{invokeFn: func(_ context.Context, name string, _ any) (json.RawMessage, error) {
		require.Equal(t, FnCalculateHealthScore, name)
		return json.RawMessage(`{"score":88}`), nil
	}}

	res := Call[scorePayload](context.Background(), inv, FnCalculateHealthScore, nil)
	require.True(t, res.OK())
	value, fell := res.OrElse(func() scorePayload { return scorePayload{Score: 1} })
	require.False(t, fell)
	require.Equal(t, 88, value.Score)
}

func TestCall_MalformedBody(t *testing.T) {
	inv := stubInvoker{invokeFn: func(context.Context, string, any) (json.RawMessage, error) {
		return json.RawMessage(`<html>`), nil
	}}

	res := Call[scorePayload](context.Background(), inv, FnCalculateHealthScore, nil)
	var malformed *MalformedResponseError
	require.ErrorAs(t, res.Err, &malformed)
}

type checkedPayload struct {
	Score int `json:"score"`
}

func (p checkedPayload) Validate() error {
	if p.Score <= 0 {
		return errors.New("score missing")
	}
	return nil
}

func TestCall_ValidatesDecodedValue(t *testing.T) {
	for _, body := range []string{`{}`, `null`, `{"score":0}`} {
		inv := stubInvoker{invokeFn: func(context.Context, string, any) (json.RawMessage, error) {
			return json.RawMessage(body), nil
		}}
		res := Call[checkedPayload](context.Background(), inv, FnCalculateHealthScore, nil)
		var malformed *MalformedResponseError
		require.ErrorAs(t, res.Err, &malformed, body)
	}

	inv := stubInvoker{invokeFn: func(context.Context, string, any) (json.RawMessage, error) {
		return json.RawMessage(`{"score":5}`), nil
	}}
	res := Call[checkedPayload](context.Background(), inv, FnCalculateHealthScore, nil)
	require.True(t, res.OK())
}

func TestOrElse_AnyErrorFallsBack(t *testing.T) {
	failures := []error{
		&UnconfiguredEndpointError{Name: "x"},
		&TransportError{Name: "x", Err: errors.New("dial tcp")},
		&HTTPError{Name: "x", Status: 503},
		&MalformedResponseError{Name: "x", Err: errors.New("eof")},
		&UnavailableError{Name: "x"},
	}
	for _, failure := range failures {
		res := Result[scorePayload]{Err: failure}
		value, fell := res.OrElse(func() scorePayload { return scorePayload{Score: 42} })
		require.True(t, fell, failure.Error())
		require.Equal(t, 42, value.Score)
	}
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{}.Invoke(context.Background(), FnGetHealthHistory, nil)
	require.True(t, IsUnavailable(err))
	require.Contains(t, err.Error(), FnGetHealthHistory)
}
