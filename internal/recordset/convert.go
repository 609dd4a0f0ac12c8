package recordset

import (
	"fmt"
	"strconv"
	"time"
)

// FromAny converts a value scanned from database/sql into a Value.
// Float types become Float. Integers become Text holding their exact
// decimal form, []byte and string become Text, nil becomes the missing marker.
func FromAny(v interface{}) Value {
	switch i := v.(type) {
	case nil:
		return Missing(Text)
	case float64:
		return FloatValue(i)
	case float32:
		return FloatValue(float64(i))
	case int64:
		return TextValue(strconv.FormatInt(i, 10))
	case int:
		return TextValue(strconv.FormatInt(int64(i), 10))
	case int32:
		return TextValue(strconv.FormatInt(int64(i), 10))
	case int16:
		return TextValue(strconv.FormatInt(int64(i), 10))
	case int8:
		return TextValue(strconv.FormatInt(int64(i), 10))
	case uint:
		return TextValue(strconv.FormatUint(uint64(i), 10))
	case uint64:
		return TextValue(strconv.FormatUint(i, 10))
	case uint32:
		return TextValue(strconv.FormatUint(uint64(i), 10))
	case uint16:
		return TextValue(strconv.FormatUint(uint64(i), 10))
	case uint8:
		return TextValue(strconv.FormatUint(uint64(i), 10))
	case []byte:
		return TextValue(string(i))
	case string:
		return TextValue(i)
	case bool:
		if i {
			return TextValue("true")
		}
		return TextValue("false")
	case time.Time:
		return TextValue(i.Format(time.RFC3339))
	default:
		return TextValue(fmt.Sprint(i))
	}
}
