package profile

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

// schemaCUE constrains the document shape. Definitions are closed, so any
// extra key is an error, and the profiles list has exactly one element.
const schemaCUE = `
#Settings: {
	saltKey:           string & !=""
	defaultIterations: string & =~"^[0-9]+$"
	customOverrides:   string
}

#Profile: {
	name:     string
	settings: #Settings
}

#Document: {
	profiles: [#Profile]
}
`

// Validate checks plain JSON against the document schema.
func Validate(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("profile.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	expr, err := cuejson.Extract("settings.json", data)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, describe(err))
	}
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, describe(err))
	}

	v := schema.LookupPath(cue.ParsePath("#Document")).Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, describe(err))
	}
	return nil
}

// describe flattens a CUE error list into one line.
func describe(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}
