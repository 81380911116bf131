package match

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var recordValidator = validator.New()

// Validate checks struct tags of a record before it is persisted.
func Validate(ctx context.Context, record any) error {
	if err := recordValidator.StructCtx(ctx, record); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// ValidateID checks a bare match identifier.
func ValidateID(matchID string) error {
	if err := recordValidator.Var(matchID, "required,max=128,excludesall= \t\n"); err != nil {
		return fmt.Errorf("%w: match id %q: %v", ErrInvalidRecord, matchID, err)
	}
	return nil
}

// CheckFields verifies that every key of fields belongs to kind and that its
// value has the expected type.
func CheckFields(kind Kind, fields Fields) error {
	for key, value := range fields {
		if err := checkField(kind, key, value); err != nil {
			return err
		}
	}
	return nil
}

func checkField(kind Kind, key string, value any) error {
	ok := false
	switch kind {
	case KindMatch:
		switch key {
		case FieldTitle, FieldRawStartTime:
			_, ok = value.(string)
		case FieldScheduledAt:
			_, ok = value.(time.Time)
		default:
			return fmt.Errorf("%w: kind=%s field=%s", ErrUnknownField, kind, key)
		}
	case KindInfo:
		switch key {
		case FieldVenue:
			_, ok = value.(string)
		case FieldUmpires:
			_, ok = value.([]string)
		case FieldSquadA, FieldSquadB:
			_, ok = value.(Squad)
		default:
			return fmt.Errorf("%w: kind=%s field=%s", ErrUnknownField, kind, key)
		}
	default:
		return fmt.Errorf("%w: merge on kind=%s", ErrKindMismatch, kind)
	}
	if !ok {
		return fmt.Errorf("%w: kind=%s field=%s has type %T", ErrInvalidRecord, kind, key, value)
	}
	return nil
}

// ApplyInfoFields merges fields into info, leaving absent fields untouched.
func ApplyInfoFields(info Info, fields Fields) Info {
	for key, value := range fields {
		switch key {
		case FieldVenue:
			v := value.(string)
			info.Venue = &v
		case FieldUmpires:
			info.Umpires = append([]string(nil), value.([]string)...)
		case FieldSquadA:
			s := cloneSquad(value.(Squad))
			info.SquadA = &s
		case FieldSquadB:
			s := cloneSquad(value.(Squad))
			info.SquadB = &s
		}
	}
	return info
}

// ApplyMatchFields merges fixture fields into m.
func ApplyMatchFields(m Match, fields Fields) Match {
	for key, value := range fields {
		switch key {
		case FieldTitle:
			m.Title = strings.TrimSpace(value.(string))
		case FieldScheduledAt:
			at := value.(time.Time).UTC()
			m.ScheduledAt = &at
		case FieldRawStartTime:
			m.RawStartTime = value.(string)
		}
	}
	return m
}
