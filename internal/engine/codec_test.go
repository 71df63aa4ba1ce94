package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestEncodeArgs(t *testing.T) {
	t.Parallel()

	t.Run("plain values pass through", func(t *testing.T) {
		got, err := EncodeArgs(map[string]any{"network": "ethereum", "index": int64(3)})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.JSONEq(t, `{"network":"ethereum","index":3}`, *got)
	})

	t.Run("big ints become decimal strings", func(t *testing.T) {
		wei, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
		require.True(t, ok)

		got, err := EncodeArgs(map[string]any{"amount": wei})
		require.NoError(t, err)
		assert.JSONEq(t, `{"amount":"123456789012345678901234567890"}`, *got)
	})

	t.Run("nil big int becomes null", func(t *testing.T) {
		got, err := EncodeArgs(map[string]any{"amount": (*big.Int)(nil)})
		require.NoError(t, err)
		assert.JSONEq(t, `{"amount":null}`, *got)
	})

	t.Run("int64 beyond 2^53 becomes a string", func(t *testing.T) {
		got, err := EncodeArgs(map[string]any{"v": int64(maxSafeInteger) + 1})
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":"9007199254740992"}`, *got)
	})

	t.Run("int64 at 2^53-1 stays numeric", func(t *testing.T) {
		got, err := EncodeArgs(map[string]any{"v": maxSafeInteger})
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":9007199254740991}`, *got)
	})

	t.Run("uint64 beyond 2^53 becomes a string", func(t *testing.T) {
		got, err := EncodeArgs([]any{uint64(1) << 60})
		require.NoError(t, err)
		assert.JSONEq(t, `["1152921504606846976"]`, *got)
	})

	t.Run("conversion recurses through nesting", func(t *testing.T) {
		arg := map[string]any{
			"balances": []any{
				map[string]any{"wei": big.NewInt(42)},
			},
		}
		got, err := EncodeArgs(arg)
		require.NoError(t, err)
		assert.JSONEq(t, `{"balances":[{"wei":"42"}]}`, *got)
	})
}

func TestParseResult(t *testing.T) {
	t.Parallel()

	t.Run("nil result", func(t *testing.T) {
		_, err := ParseResult(MethodGetBalances, nil)
		require.Error(t, err)
		assert.True(t, lanterr.Is(err, lanterr.ErrNoResult))
		assert.Contains(t, err.Error(), "getBalances returned no result")
	})

	t.Run("undecodable result", func(t *testing.T) {
		_, err := ParseResult(MethodGetBalances, strPtr("{nope"))
		require.Error(t, err)
		assert.True(t, lanterr.Is(err, lanterr.ErrEngineCallFailed))
		assert.Contains(t, err.Error(), "failed to parse result from getBalances")
	})

	t.Run("null result", func(t *testing.T) {
		_, err := ParseResult(MethodGetBalances, strPtr("null"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsed result is null or undefined")
	})

	t.Run("safe integers decode as int64", func(t *testing.T) {
		got, err := ParseResult(MethodGetBalances, strPtr(`{"count":7}`))
		require.NoError(t, err)
		m, ok := got.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, int64(7), m["count"])
	})

	t.Run("oversized integers decode as strings", func(t *testing.T) {
		got, err := ParseResult(MethodGetBalances,
			strPtr(`{"wei":123456789012345678901234567890}`))
		require.NoError(t, err)
		m, ok := got.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "123456789012345678901234567890", m["wei"])
	})

	t.Run("floats decode as float64", func(t *testing.T) {
		got, err := ParseResult(MethodGetBalances, strPtr(`[1.5]`))
		require.NoError(t, err)
		arr, ok := got.([]any)
		require.True(t, ok)
		assert.Equal(t, 1.5, arr[0])
	})

	t.Run("normalization recurses through nesting", func(t *testing.T) {
		got, err := ParseResult(MethodGetBalances,
			strPtr(`{"a":[{"big":99999999999999999999,"small":1}]}`))
		require.NoError(t, err)
		m := got.(map[string]any)
		inner := m["a"].([]any)[0].(map[string]any)
		assert.Equal(t, "99999999999999999999", inner["big"])
		assert.Equal(t, int64(1), inner["small"])
	})
}

func TestParseResultInto(t *testing.T) {
	t.Parallel()

	type balance struct {
		Network string `json:"network"`
		Wei     string `json:"wei"`
	}

	t.Run("decodes into struct", func(t *testing.T) {
		var out balance
		err := ParseResultInto(MethodGetBalances,
			strPtr(`{"network":"ethereum","wei":"42"}`), &out)
		require.NoError(t, err)
		assert.Equal(t, balance{Network: "ethereum", Wei: "42"}, out)
	})

	t.Run("nil result", func(t *testing.T) {
		var out balance
		err := ParseResultInto(MethodGetBalances, nil, &out)
		require.Error(t, err)
		assert.True(t, lanterr.Is(err, lanterr.ErrNoResult))
	})

	t.Run("null result leaves out untouched", func(t *testing.T) {
		out := balance{Network: "sentinel"}
		err := ParseResultInto(MethodGetBalances, strPtr("null"), &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsed result is null or undefined")
		assert.Equal(t, "sentinel", out.Network)
	})
}
