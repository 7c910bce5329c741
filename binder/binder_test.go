package binder

import (
	"database/sql/driver"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"github.com/Konsultn-Engineering/parambind/schema"
)

const deviceStatusQuery = `SELECT ds.Status
FROM Devices d
JOIN DeviceStatuses ds ON d.Id = ds.DeviceId
WHERE d.DeviceId = @deviceId`

func TestResolveDeviceIdExample(t *testing.T) {
	bindings, err := Resolve(deviceStatusQuery, BagFromMap(map[string]any{"deviceId": "20ab3b"}))
	require.NoError(t, err)

	assert.Equal(t, []Binding{
		{Name: "deviceId", Ordinal: 1, Value: "20ab3b", Type: schema.TypeString},
	}, bindings)
}

func TestResolveBindsEveryPlaceholder(t *testing.T) {
	query := "SELECT * FROM t WHERE a = @a AND b = @b AND c IN (@c, @a)"
	bag := NewBag(Named("a", 1), Named("b", "two"), Named("c", 3.5))

	bindings, err := Resolve(query, bag)
	require.NoError(t, err)
	require.Len(t, bindings, 3)

	assert.Equal(t, Binding{Name: "a", Ordinal: 1, Value: 1, Type: schema.TypeInt64}, bindings[0])
	assert.Equal(t, Binding{Name: "b", Ordinal: 2, Value: "two", Type: schema.TypeString}, bindings[1])
	assert.Equal(t, Binding{Name: "c", Ordinal: 3, Value: 3.5, Type: schema.TypeFloat64}, bindings[2])
}

func TestResolveNoPlaceholders(t *testing.T) {
	bindings, err := Resolve("SELECT 1", NewBag(Named("unused", 1)))
	require.NoError(t, err)
	assert.Empty(t, bindings)
}

func TestResolveUnbound(t *testing.T) {
	_, err := Resolve(deviceStatusQuery, NewBag(Named("myParameterName", "x")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnboundParameter)
	assert.NotErrorIs(t, err, ErrAmbiguousParameter)

	var bindErr *Error
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, KindUnboundParameter, bindErr.Kind)
	assert.Equal(t, "deviceId", bindErr.Name)
	assert.Equal(t, "unbound parameter @deviceId: no value supplied", err.Error())
}

func TestResolveFirstFailureWins(t *testing.T) {
	bag := NewBag(Named("b", make(chan int)))

	_, err := Resolve("SELECT @a, @b", bag)
	var bindErr *Error
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, KindUnboundParameter, bindErr.Kind)
	assert.Equal(t, "a", bindErr.Name)
}

func TestResolveAmbiguous(t *testing.T) {
	t.Run("duplicate entries", func(t *testing.T) {
		bag := NewBag(Named("deviceId", "20ab3b"), Named("deviceId", int64(7)))

		_, err := Resolve(deviceStatusQuery, bag)
		assert.ErrorIs(t, err, ErrAmbiguousParameter)

		var bindErr *Error
		require.ErrorAs(t, err, &bindErr)
		assert.Equal(t, []string{"deviceId", "deviceId"}, bindErr.Candidates)
	})

	t.Run("case-insensitive collision", func(t *testing.T) {
		b, err := New(Config{CaseInsensitive: true})
		require.NoError(t, err)

		bag := NewBag(Named("deviceId", "20ab3b"), Named("DeviceId", int64(7)))
		_, err = b.Resolve(deviceStatusQuery, bag)
		assert.ErrorIs(t, err, ErrAmbiguousParameter)
	})

	t.Run("case-sensitive by default", func(t *testing.T) {
		bag := NewBag(Named("deviceId", "20ab3b"), Named("DeviceId", int64(7)))
		bindings, err := Resolve(deviceStatusQuery, bag)
		require.NoError(t, err)
		assert.Equal(t, "20ab3b", bindings[0].Value)
	})
}

func TestResolveCaseInsensitive(t *testing.T) {
	b, err := New(Config{CaseInsensitive: true})
	require.NoError(t, err)

	bindings, err := b.Resolve("WHERE a = @deviceId OR b = @DEVICEID", NewBag(Named("DEVICEID", "x")))
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, "deviceId", bindings[0].Name)
}

func TestResolvePrefixedBagNames(t *testing.T) {
	bindings, err := Resolve(deviceStatusQuery, NewBag(Named("@deviceId", "20ab3b")))
	require.NoError(t, err)
	assert.Equal(t, schema.TypeString, bindings[0].Type)
}

func TestResolveExplicitTypes(t *testing.T) {
	nvarchar, err := TypedSQL("deviceId", "20ab3b", "NVARCHAR(50)")
	require.NoError(t, err)

	tests := []struct {
		name  string
		param Param
		want  schema.Type
	}{
		{"same type", nvarchar, schema.TypeString},
		{"widening", Typed("deviceId", int32(7), schema.TypeInt64), schema.TypeInt64},
		{"narrowing in range", Typed("deviceId", 7, schema.TypeInt16), schema.TypeInt16},
		{"typed null", Typed("deviceId", nil, schema.TypeInt64), schema.TypeInt64},
		{"uuid text", Typed("deviceId", "9f0c1e6a-8b1d-4b7e-9d43-4f2f7d9a1c10", schema.TypeUUID), schema.TypeUUID},
		{"decimal text", Typed("deviceId", "12.50", schema.TypeDecimal), schema.TypeDecimal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bindings, err := Resolve(deviceStatusQuery, NewBag(tt.param))
			require.NoError(t, err)
			assert.Equal(t, tt.want, bindings[0].Type)
			assert.True(t, bindings[0].Explicit)
			assert.Equal(t, tt.param.Value, bindings[0].Value)
		})
	}
}

func TestResolveTypeMismatch(t *testing.T) {
	tests := []struct {
		name   string
		param  Param
		actual schema.Type
	}{
		{"string as bigint", Typed("deviceId", "20ab3b", schema.TypeInt64), schema.TypeString},
		{"overflow", Typed("deviceId", 300, schema.TypeInt8), schema.TypeInt64},
		{"bad uuid", Typed("deviceId", "20ab3b", schema.TypeUUID), schema.TypeString},
		{"float as int", Typed("deviceId", 1.5, schema.TypeInt32), schema.TypeFloat64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(deviceStatusQuery, NewBag(tt.param))
			assert.ErrorIs(t, err, ErrTypeMismatch)

			var bindErr *Error
			require.ErrorAs(t, err, &bindErr)
			assert.Equal(t, tt.param.Type, bindErr.Expected)
			assert.Equal(t, tt.actual, bindErr.Actual)
		})
	}
}

func TestResolveUnsupportedType(t *testing.T) {
	_, err := Resolve("SELECT @ch", NewBag(Named("ch", make(chan int))))
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.ErrorIs(t, err, schema.ErrUnsupportedType)

	var bindErr *Error
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, KindUnsupportedType, bindErr.Kind)
	assert.Equal(t, "chan int", bindErr.GoType)
}

// deviceCode implements driver.Valuer on its pointer only.
type deviceCode struct{ code string }

func (c *deviceCode) Value() (driver.Value, error) { return c.code, nil }

func TestResolveInfersFromValueOnly(t *testing.T) {
	var nilPtr *string
	id := "20ab3b"

	tests := []struct {
		name  string
		value any
		want  schema.Type
	}{
		{"string", "20ab3b", schema.TypeString},
		{"pointer", &id, schema.TypeString},
		{"nil", nil, schema.TypeNull},
		{"nil pointer", nilPtr, schema.TypeNull},
		{"int64", int64(20), schema.TypeInt64},
		{"bytes", []byte{1, 2}, schema.TypeBytes},
		{"pointer receiver valuer", &deviceCode{code: "20ab3b"}, schema.TypeString},
		{"nil pointer receiver valuer", (*deviceCode)(nil), schema.TypeNull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bindings, err := Resolve(deviceStatusQuery, NewBag(Named("deviceId", tt.value)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, bindings[0].Type)
			assert.False(t, bindings[0].Explicit)
		})
	}
}

func TestResolveOrderIndependentAndIdempotent(t *testing.T) {
	query := "SELECT @a, @b, @c"
	forward := NewBag(Named("a", 1), Named("b", "x"), Named("c", true))
	backward := NewBag(Named("c", true), Named("b", "x"), Named("a", 1))

	first, err := Resolve(query, forward)
	require.NoError(t, err)
	second, err := Resolve(query, backward)
	require.NoError(t, err)
	third, err := Resolve(query, forward)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
}

func TestUnused(t *testing.T) {
	b, err := New(Config{})
	require.NoError(t, err)

	bag := NewBag(Named("deviceId", "x"), Named("myParameterName", "y"))
	bindings, err := b.Resolve(deviceStatusQuery, bag)
	require.NoError(t, err)
	assert.Equal(t, []string{"myParameterName"}, b.Unused(bag, bindings))
}

type deviceFilter struct {
	DeviceID string
	Limit    int    `db:"max"`
	Kind     string `db:"type:nvarchar(10)"`
	Internal string `db:"-"`
	hidden   string
}

func TestBagFromStruct(t *testing.T) {
	bag, err := BagFromStruct(&deviceFilter{DeviceID: "20ab3b", Limit: 10, Kind: "sensor", hidden: "h"})
	require.NoError(t, err)
	assert.Equal(t, []string{"deviceId", "max", "kind"}, bag.Names())
	assert.Equal(t, Param{Name: "kind", Value: "sensor", Type: schema.TypeString}, bag.At(2))

	bindings, err := Resolve(deviceStatusQuery, bag)
	require.NoError(t, err)
	assert.Equal(t, "20ab3b", bindings[0].Value)
	assert.Equal(t, schema.TypeString, bindings[0].Type)

	_, err = BagFromStruct(42)
	assert.Error(t, err)
	_, err = BagFromStruct((*deviceFilter)(nil))
	assert.Error(t, err)
}

func TestBagFromStructNaming(t *testing.T) {
	b, err := New(Config{}, WithNaming(schema.DefaultNamingStrategy()))
	require.NoError(t, err)

	bag, err := b.BagFromStruct(deviceFilter{DeviceID: "x"})
	require.NoError(t, err)
	assert.Equal(t, "device_id", bag.At(0).Name)
}

func TestBagIsImmutable(t *testing.T) {
	params := []Param{Named("a", 1)}
	bag := NewBag(params...)
	params[0].Value = 2
	assert.Equal(t, 1, bag.At(0).Value)

	extended := bag.With(Named("b", 2))
	assert.Equal(t, 1, bag.Len())
	assert.Equal(t, 2, extended.Len())

	assert.Equal(t, []string{"a", "b", "c"}, BagFromMap(map[string]any{"c": 1, "a": 2, "b": 3}).Names())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.NoError(t, Config{Prefix: ":"}.Validate())

	_, err := New(Config{Prefix: "#"})
	assert.Error(t, err)
}

func TestCachedMatchesUncached(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cached, err := New(Config{PlanCacheSize: 4}, WithLogger(zap.New(core)))
	require.NoError(t, err)
	uncached, err := New(Config{})
	require.NoError(t, err)

	queries := make([]string, 8)
	for i := range queries {
		queries[i] = fmt.Sprintf("SELECT @a%d, @b WHERE x = @a%d", i, i)
	}

	var g errgroup.Group
	for i := range 64 {
		query := queries[i%len(queries)]
		bag := NewBag(Named(fmt.Sprintf("a%d", i%len(queries)), i), Named("b", "x"))
		g.Go(func() error {
			want, err := uncached.Resolve(query, bag)
			if err != nil {
				return err
			}
			got, err := cached.Resolve(query, bag)
			if err != nil {
				return err
			}
			if diff := cmp.Diff(want, got); diff != "" {
				return fmt.Errorf("cached result differs for %q (-want +got):\n%s", query, diff)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.LessOrEqual(t, cached.plans.Len(), 4)
	assert.NotZero(t, logs.FilterMessage("parsed query").Len())
}

func TestParseLoggedWithoutCache(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	b, err := New(Config{}, WithLogger(zap.New(core)))
	require.NoError(t, err)

	for range 2 {
		_, err := b.Resolve(deviceStatusQuery, NewBag(Named("deviceId", "20ab3b")))
		require.NoError(t, err)
	}

	parsed := logs.FilterMessage("parsed query").All()
	require.Len(t, parsed, 2, "every parse is logged when nothing is cached")
	assert.Equal(t, false, parsed[0].ContextMap()["cached"])
	assert.Equal(t, int64(1), parsed[0].ContextMap()["placeholders"])
}
