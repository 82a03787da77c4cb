// Package schema validates JSON request bodies against embedded JSON Schemas.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/adsgram/backend/internal/apperr"
)

// Request body schema names, one per file under schemas/.
const (
	AdCredit          = "ad_credit"
	TaskSubmit        = "task_submit"
	TaskDecide        = "task_decide"
	WithdrawalRequest = "withdrawal_request"
	WithdrawalAction  = "withdrawal_action"
	DevLogin          = "dev_login"
	VerifyCode        = "verify_code"
	AdminLogin        = "admin_login"
	ProfileUpdate     = "profile_update"
)

//go:embed schemas/*.json
var files embed.FS

var (
	ErrMalformed = apperr.New(apperr.KindInvalidInput, "invalid JSON")

	// ErrValidation carries the schema violation as its detail.
	ErrValidation = apperr.New(apperr.KindInvalidInput, "invalid request body")
)

type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	entries, err := fs.ReadDir(files, "schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}
	schemas := make(map[string]*jsonschema.Schema, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		data, err := files.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", e.Name(), err)
		}
		s, err := jsonschema.CompileString("https://adsgram.local/schemas/"+e.Name(), string(data))
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", name, err)
		}
		schemas[name] = s
	}
	return &Validator{schemas: schemas}, nil
}

// Validate reports whether body is JSON matching the named schema. Unknown
// names are a programming error and are not classified.
func (v *Validator) Validate(name string, body []byte) error {
	s, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return ErrMalformed
	}
	if err := s.Validate(doc); err != nil {
		return ErrValidation.Detail(err.Error())
	}
	return nil
}
