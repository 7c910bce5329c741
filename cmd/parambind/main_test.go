package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/parambind/binder"
	"github.com/Konsultn-Engineering/parambind/config"
	"github.com/Konsultn-Engineering/parambind/schema"
)

const reproQuery = `SELECT ds.Status FROM [Devices] d JOIN [DeviceStatuses] ds ON d.[Id] = ds.[DeviceId] WHERE d.[DeviceId] = @deviceId`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvDialect, "")
	t.Setenv(config.EnvLogLevel, "")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPlaceholdersCommand(t *testing.T) {
	out, err := run(t, "placeholders", "SELECT @a, '@x', @b, @a")
	require.NoError(t, err)

	var got []placeholderOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, []placeholderOutput{
		{Name: "a", Ordinal: 1, Offset: 7},
		{Name: "b", Ordinal: 2, Offset: 17},
	}, got)

	out, err = run(t, "placeholders", "SELECT @a # @old", "-d", "mysql")
	require.NoError(t, err)
	got = nil
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, []placeholderOutput{{Name: "a", Ordinal: 1, Offset: 7}}, got)
}

func TestBindCommand(t *testing.T) {
	out, err := run(t, "bind", reproQuery, "--param", "deviceId=20ab3b")
	require.NoError(t, err)

	var got bindOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "sqlserver", got.Dialect)
	assert.Contains(t, got.SQL, "d.[DeviceId] = @p1")
	assert.Equal(t, []string{"N'20ab3b'"}, got.Args)
	assert.Equal(t, []bindingOutput{{Name: "deviceId", Ordinal: 1, Type: "string", Value: "N'20ab3b'"}}, got.Bindings)
}

func TestBindCommandTypedPostgres(t *testing.T) {
	out, err := run(t, "bind", "SELECT * FROM t WHERE id = @id OR code = @code",
		"-p", "id=7", "-t", "id=bigint", "-p", "code='42'", "-d", "postgres")
	require.NoError(t, err)

	var got bindOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "SELECT * FROM t WHERE id = $1 OR code = $2", got.SQL)
	assert.Equal(t, []bindingOutput{
		{Name: "id", Ordinal: 1, Type: "int64", Explicit: true, Value: "7"},
		{Name: "code", Ordinal: 2, Type: "string", Value: "'42'"},
	}, got.Bindings)
}

func TestBindCommandConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parambind.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dialect: sqlite\nbinder:\n  prefix: \":\"\n"), 0o644))

	out, err := run(t, "bind", "SELECT :a, :a", "-p", "a=1", "--config", path)
	require.NoError(t, err)

	var got bindOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "SELECT ?, ?", got.SQL)
	assert.Equal(t, []string{"1", "1"}, got.Args)
}

func TestBindCommandErrors(t *testing.T) {
	_, err := run(t, "bind", reproQuery, "-p", "myParameterName=20ab3b")
	assert.ErrorIs(t, err, binder.ErrUnboundParameter)

	_, err = run(t, "bind", reproQuery, "-p", "deviceId=20ab3b", "-t", "deviceId=bigint")
	assert.ErrorIs(t, err, binder.ErrTypeMismatch)

	_, err = run(t, "bind", reproQuery, "-p", "deviceId")
	assert.ErrorContains(t, err, "want name=value")

	_, err = run(t, "bind", reproQuery, "-p", "deviceId=x", "-t", "deviceId=blob2")
	assert.ErrorContains(t, err, "@deviceId")

	_, err = run(t, "bind", reproQuery, "-p", "deviceId=x", "-t", "other=int")
	assert.ErrorContains(t, err, "other")

	_, err = run(t, "bind", reproQuery, "-p", "deviceId=x", "-d", "oracle")
	assert.Error(t, err)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		typ  schema.Type
		want any
	}{
		{"20ab3b", schema.TypeUnknown, "20ab3b"},
		{"'42'", schema.TypeUnknown, "42"},
		{"'it''s'", schema.TypeUnknown, "it's"},
		{"42", schema.TypeUnknown, int64(42)},
		{"-1.5", schema.TypeUnknown, -1.5},
		{"true", schema.TypeUnknown, true},
		{"FALSE", schema.TypeUnknown, false},
		{"null", schema.TypeUnknown, nil},
		{"", schema.TypeUnknown, ""},
		{"20e3", schema.TypeUnknown, "20e3"},
		{"nan", schema.TypeUnknown, "nan"},
		{"inf", schema.TypeUnknown, "inf"},
		{"-Infinity", schema.TypeUnknown, "-Infinity"},
		{"0x10", schema.TypeUnknown, "0x10"},
		{"1.", schema.TypeUnknown, "1."},
		{"42", schema.TypeString, "42"},
		{"42", schema.TypeDecimal, "42"},
		{"20e3", schema.TypeFloat64, float64(20000)},
		{"7", schema.TypeInt16, int64(7)},
		{"7", schema.TypeUint32, uint64(7)},
		{"20ab3b", schema.TypeInt64, "20ab3b"},
		{"1", schema.TypeBool, true},
		{"ab", schema.TypeBytes, []byte("ab")},
		{"null", schema.TypeInt64, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseValue(tt.raw, tt.typ), "%s as %s", tt.raw, tt.typ)
	}
}
