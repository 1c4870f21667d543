package validation

import "testing"

func validRaw() map[string]any {
	return map[string]any{
		"id_conversazione":    "conv-1",
		"id_messaggio":        "msg-1",
		"testo_normalizzato":  "Contatto: mario.rossi@example.com",
		"lingua":              "it",
		"timestamp":           "2026-07-30T10:00:00Z",
		"mittente":            "a@b.com",
		"destinatario":        "c@d.com",
	}
}

func TestValidate_Success(t *testing.T) {
	input, warnings, err := Validate(validRaw(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	if input.IDConversazione != "conv-1" {
		t.Errorf("IDConversazione = %q", input.IDConversazione)
	}
	if input.Lingua == nil || *input.Lingua != "it" {
		t.Errorf("Lingua = %v", input.Lingua)
	}
}

func TestValidate_MissingRequiredField(t *testing.T) {
	raw := validRaw()
	delete(raw, "id_messaggio")

	_, _, err := Validate(raw, 0)
	if err == nil {
		t.Fatal("expected error for missing required field")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(verr.Errors) != 1 || verr.Errors[0].Field != "id_messaggio" {
		t.Errorf("unexpected errors: %+v", verr.Errors)
	}
}

func TestValidate_WhitespaceOnlyText(t *testing.T) {
	raw := validRaw()
	raw["testo_normalizzato"] = "   \n\t  "

	_, _, err := Validate(raw, 0)
	if err == nil {
		t.Fatal("expected error for whitespace-only text")
	}
	verr := err.(*ValidationError)
	if verr.Errors[0].Type != "empty_text" {
		t.Errorf("Type = %q, want empty_text", verr.Errors[0].Type)
	}
}

func TestValidate_TextTooLong(t *testing.T) {
	raw := validRaw()
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	raw["testo_normalizzato"] = string(long)

	_, _, err := Validate(raw, 100)
	if err == nil {
		t.Fatal("expected error for text exceeding max length")
	}
	verr := err.(*ValidationError)
	found := false
	for _, fe := range verr.Errors {
		if fe.Type == "text_too_long" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected text_too_long error, got %+v", verr.Errors)
	}
}

func TestValidate_RejectsHTML(t *testing.T) {
	raw := validRaw()
	raw["testo_normalizzato"] = "Hello <script>alert(1)</script> world"

	_, _, err := Validate(raw, 0)
	if err == nil {
		t.Fatal("expected error for embedded HTML")
	}
	verr := err.(*ValidationError)
	found := false
	for _, fe := range verr.Errors {
		if fe.Type == "html_rejected" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected html_rejected error, got %+v", verr.Errors)
	}
}

func TestValidate_NullLinguaIsSoftWarning(t *testing.T) {
	raw := validRaw()
	raw["lingua"] = nil

	input, warnings, err := Validate(raw, 0)
	if err != nil {
		t.Fatalf("null lingua should not be a hard error: %v", err)
	}
	if input.Lingua != nil {
		t.Errorf("expected nil Lingua, got %v", *input.Lingua)
	}
	if len(warnings) != 1 || warnings[0].Type != "lingua_missing" {
		t.Errorf("expected lingua_missing warning, got %+v", warnings)
	}
}

func TestValidate_TypeMismatch(t *testing.T) {
	raw := validRaw()
	raw["id_messaggio"] = 12345

	_, _, err := Validate(raw, 0)
	if err == nil {
		t.Fatal("expected error for non-string field")
	}
	verr := err.(*ValidationError)
	if verr.Errors[0].Type != "type_mismatch" {
		t.Errorf("Type = %q, want type_mismatch", verr.Errors[0].Type)
	}
}
