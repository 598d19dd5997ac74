package types

import (
	"fmt"
	"strconv"
)

// FormattedUtterance is the final output of the utterance formatter: the
// rendered text plus the structured slots it was built from, retained for
// logging and testing. ObjectDisplay always carries the *result* of
// invoking the representation function on the object, never any textual
// form of the function itself.
type FormattedUtterance struct {
	Text           string `json:"text"`            // Final natural-language string
	ObjectDisplay  string `json:"object_display"`  // Human-readable object reference
	AttributeName  string `json:"attribute_name"`  // Requested attribute
	AttributeValue string `json:"attribute_value"` // Stringified attribute value
}

// FormatValue renders an attribute value using a uniform, locale-independent
// conversion. Booleans keep the True/False literal spelling and nil renders
// as None, matching the conversational output the surrounding dialogue
// stack was trained against.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
