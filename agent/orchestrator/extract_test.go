package orchestrator

import (
	"testing"
)

func TestParseExtractionPlainJSON(t *testing.T) {
	t.Parallel()

	got := ParseExtraction(`{"intent":"get_order","parameters":{"order_id":"42"}}`)
	if got.Intent != "get_order" {
		t.Fatalf("unexpected intent: %q", got.Intent)
	}
	if got.Parameters["order_id"] != "42" {
		t.Fatalf("unexpected parameters: %v", got.Parameters)
	}
}

func TestParseExtractionStripsCodeFences(t *testing.T) {
	t.Parallel()

	raw := "```json\n{\"intent\": \"update_profile\", \"parameters\": {\"email\": \"a@b.com\"}}\n```"
	got := ParseExtraction(raw)
	if got.Intent != "update_profile" {
		t.Fatalf("unexpected intent: %q", got.Intent)
	}
	if got.Parameters["email"] != "a@b.com" {
		t.Fatalf("unexpected parameters: %v", got.Parameters)
	}
}

func TestParseExtractionIgnoresSurroundingProse(t *testing.T) {
	t.Parallel()

	raw := `Sure! Here is the extraction you asked for:
{"intent":"search_products","parameters":{"query":"laptop"}}
Let me know if you need anything else.`
	got := ParseExtraction(raw)
	if got.Intent != "search_products" {
		t.Fatalf("unexpected intent: %q", got.Intent)
	}
	if got.Parameters["query"] != "laptop" {
		t.Fatalf("unexpected parameters: %v", got.Parameters)
	}
}

func TestParseExtractionCoercesScalarValues(t *testing.T) {
	t.Parallel()

	got := ParseExtraction(`{"intent":"get_order","parameters":{"order_id":42,"rush":true,"note":null,"max_price":19.5}}`)
	if got.Parameters["order_id"] != "42" {
		t.Fatalf("number must render without decimals, got %q", got.Parameters["order_id"])
	}
	if got.Parameters["rush"] != "true" {
		t.Fatalf("unexpected bool rendering: %q", got.Parameters["rush"])
	}
	if got.Parameters["max_price"] != "19.5" {
		t.Fatalf("unexpected float rendering: %q", got.Parameters["max_price"])
	}
	if _, ok := got.Parameters["note"]; ok {
		t.Fatalf("null values must be dropped: %v", got.Parameters)
	}
}

func TestParseExtractionFallsBackOnGarbage(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"",
		"I could not determine the intent.",
		"{intent: broken",
		"```\nnot json\n```",
	} {
		got := ParseExtraction(raw)
		if got.Intent != "" {
			t.Fatalf("raw=%q: expected empty intent, got %q", raw, got.Intent)
		}
		if len(got.Parameters) != 0 {
			t.Fatalf("raw=%q: expected empty parameters, got %v", raw, got.Parameters)
		}
	}
}
