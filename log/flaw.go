package log

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"
)

func errDict(message, typeName, syntaxRepr string) *zerolog.Event {
	return zerolog.
		Dict().
		Str("message", message).
		Str("type_name", typeName).
		Str("syntax_representation", syntaxRepr)
}

// Flaw renders err into the event: a flaw gets its inner error, payload
// records, joined errors, and stack trace as structured fields, anything else
// falls back to the plain error field.
func Flaw(err error) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		flawErr := new(flaw.Flaw)
		if !errors.As(err, &flawErr) {
			e.Err(err)
			return
		}

		e.Dict("error", errDict(flawErr.Inner, flawErr.InnerType, flawErr.InnerSyntaxRepr))

		records := zerolog.Arr()
		for _, v := range flawErr.Records {
			d := zerolog.Dict().Str("function", v.Function)
			if b, err := json.MarshalWithOption(v.Payload, json.UnorderedMap(), json.DisableNormalizeUTF8(), json.DisableHTMLEscape()); nil != err {
				d.Dict("payload", zerolog.Dict().Str("error", err.Error()).Str("raw", fmt.Sprintf("%#+v", v.Payload)))
			} else {
				d.RawJSON("payload", b)
			}
			records.Dict(d)
		}
		e.Array("records", records)

		joined := zerolog.Arr()
		for _, v := range flawErr.JoinedErrors {
			d := zerolog.Dict().Dict("error", errDict(v.Message, v.TypeName, v.SyntaxRepr))
			if st := v.CallerStackTrace; nil != st {
				d.Dict(
					"caller_stack_trace",
					zerolog.
						Dict().
						Str("location", fmt.Sprintf("%s:%d", st.File, st.Line)).
						Str("function", st.Function),
				)
			} else {
				d.Stringer("caller_stack_trace", nil)
			}
			joined.Dict(d)
		}
		e.Array("joined_errors", joined)

		stackTraces := zerolog.Arr()
		for _, v := range flawErr.StackTrace {
			stackTraces.Dict(zerolog.Dict().Str("location", fmt.Sprintf("%s:%d", v.File, v.Line)).Str("function", v.Function))
		}
		e.Array("stack_traces", stackTraces)
	}
}
