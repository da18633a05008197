package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestParseKeyNormalizes(t *testing.T) {
	raw := strings.Split("a b c d e a b c d e a b c d e a b c d e", " ")
	key, err := ParseKey(raw)
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}
	if key[0] != ChoiceA || key[4] != ChoiceE {
		t.Fatalf("expected upper-cased letters, got %v", key[:5])
	}
	if !key.IsComplete() || key.IsPlaceholder() {
		t.Fatalf("expected complete key")
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	if _, err := ParseKey(make([]string, 19)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for short key, got %v", err)
	}
	raw := make([]string, QuestionCount)
	raw[3] = "F"
	_, err := ParseKey(raw)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "key" {
		t.Fatalf("expected key validation error, got %v", err)
	}
}

func TestKeyStates(t *testing.T) {
	key := EmptyKey()
	if !key.IsPlaceholder() || key.IsComplete() {
		t.Fatalf("empty key should be placeholder")
	}
	key[0] = ChoiceB
	if key.IsPlaceholder() || key.IsComplete() {
		t.Fatalf("partially set key is neither placeholder nor complete")
	}
	if err := key.Validate(); err != nil {
		t.Fatalf("partial key is still well formed: %v", err)
	}
}

func TestTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:45")
	if err != nil || tod != NewTimeOfDay(9, 45, 0) {
		t.Fatalf("expected 09:45, got %v err=%v", tod, err)
	}
	if tod.String() != "09:45" {
		t.Fatalf("unexpected rendering %s", tod)
	}
	tod, err = ParseTimeOfDay("10:00:30")
	if err != nil || tod.String() != "10:00:30" {
		t.Fatalf("expected 10:00:30, got %v err=%v", tod, err)
	}
	tod, err = ParseTimeOfDay("")
	if err != nil || tod != EndOfDay {
		t.Fatalf("missing time should rank last, got %v err=%v", tod, err)
	}
	if _, err := ParseTimeOfDay("25:00"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTimeOfDayRejectsTrailingInput(t *testing.T) {
	for _, raw := range []string{"10:05xyz", "1:02:03:04", "10", "10:", ":30", "10:-5", "ab:cd"} {
		if _, err := ParseTimeOfDay(raw); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", raw, err)
		}
	}
}
