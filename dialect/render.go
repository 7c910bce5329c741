package dialect

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// renderLiteral is shared by the dialects; bytesPrefix and bytesSuffix wrap hex-encoded binary.
func renderLiteral(v any, bytesPrefix, bytesSuffix string) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quoteString(val)
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", val)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(val).Float(), 'f', -1, 64)
	case time.Time:
		return "'" + val.Format("2006-01-02 15:04:05.000000") + "'"
	case uuid.UUID:
		return "'" + val.String() + "'"
	case []byte:
		return bytesPrefix + hex.EncodeToString(val) + bytesSuffix
	case fmt.Stringer:
		return quoteString(val.String())
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return "NULL"
			}
			return renderLiteral(rv.Elem().Interface(), bytesPrefix, bytesSuffix)
		}
		return quoteString(fmt.Sprint(val))
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
