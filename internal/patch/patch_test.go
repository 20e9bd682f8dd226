package patch

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustDecode(t *testing.T, raw string) any {
	t.Helper()
	doc, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return doc
}

func TestStateFileRule(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantChanged bool
		want        string
	}{
		{
			name:        "CN replaced",
			input:       `{"variations_country":"CN","other_field":"test"}`,
			wantChanged: true,
			want:        `{"variations_country":"US","other_field":"test"}`,
		},
		{
			name:        "other country replaced",
			input:       `{"variations_country":"SG"}`,
			wantChanged: true,
			want:        `{"variations_country":"US"}`,
		},
		{
			name:        "already US",
			input:       `{"variations_country":"US","other_field":"test"}`,
			wantChanged: false,
			want:        `{"variations_country":"US","other_field":"test"}`,
		},
		{
			name:        "missing field added",
			input:       `{"other_field":"test"}`,
			wantChanged: true,
			want:        `{"variations_country":"US","other_field":"test"}`,
		},
		{
			name:        "non-string value replaced",
			input:       `{"variations_country":42}`,
			wantChanged: true,
			want:        `{"variations_country":"US"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDecode(t, tt.input)
			got, changed := StateFileRule(DefaultCountry)(doc)
			if changed != tt.wantChanged {
				t.Fatalf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if diff := cmp.Diff(mustDecode(t, tt.want), got); diff != "" {
				t.Fatalf("document mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPreferenceFileRule(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantChanged bool
		want        string
	}{
		{
			name:        "browser missing",
			input:       `{"other_field":"test"}`,
			wantChanged: true,
			want:        `{"other_field":"test","browser":{"chat_ip_eligibility_status":true}}`,
		},
		{
			name:        "flag false",
			input:       `{"browser":{"chat_ip_eligibility_status":false,"x":1}}`,
			wantChanged: true,
			want:        `{"browser":{"chat_ip_eligibility_status":true,"x":1}}`,
		},
		{
			name:        "flag absent",
			input:       `{"browser":{"x":1}}`,
			wantChanged: true,
			want:        `{"browser":{"chat_ip_eligibility_status":true,"x":1}}`,
		},
		{
			name:        "already true",
			input:       `{"browser":{"chat_ip_eligibility_status":true}}`,
			wantChanged: false,
			want:        `{"browser":{"chat_ip_eligibility_status":true}}`,
		},
		{
			name:        "browser is not an object",
			input:       `{"browser":"stable"}`,
			wantChanged: false,
			want:        `{"browser":"stable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDecode(t, tt.input)
			got, changed := PreferenceFileRule()(doc)
			if changed != tt.wantChanged {
				t.Fatalf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if diff := cmp.Diff(mustDecode(t, tt.want), got); diff != "" {
				t.Fatalf("document mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRulesIdempotent(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"variations_country":"CN"}`,
		`{"variations_country":"US"}`,
		`{"browser":{"chat_ip_eligibility_status":false}}`,
		`{"browser":[1,2,3]}`,
		`{"a":{"b":[{"c":"CN"}]},"n":1.50}`,
		`"root string"`,
		`[1,2]`,
		`null`,
	}
	rules := map[string]Rule{
		"state":      StateFileRule(DefaultCountry),
		"preference": PreferenceFileRule(),
	}

	for ruleName, rule := range rules {
		for _, input := range inputs {
			doc := mustDecode(t, input)
			first, _ := rule(doc)
			firstBytes, err := Encode(first)
			if err != nil {
				t.Fatalf("%s: encode first: %v", ruleName, err)
			}

			second, changed := rule(first)
			if changed {
				t.Errorf("%s on %s: second application reported a change", ruleName, input)
			}
			secondBytes, err := Encode(second)
			if err != nil {
				t.Fatalf("%s: encode second: %v", ruleName, err)
			}
			if !bytes.Equal(firstBytes, secondBytes) {
				t.Errorf("%s on %s: output differs between applications:\n%s\n%s", ruleName, input, firstBytes, secondBytes)
			}
		}
	}
}

func TestSetFieldNonObjectRoot(t *testing.T) {
	roots := []string{`"text"`, `12`, `true`, `[{"browser":{}}]`, `null`}

	for _, raw := range roots {
		doc := mustDecode(t, raw)
		if SetStringField(doc, []string{"variations_country"}, "US") {
			t.Errorf("SetStringField on %s reported a change", raw)
		}
		if SetBoolField(doc, []string{"browser", "chat_ip_eligibility_status"}, true) {
			t.Errorf("SetBoolField on %s reported a change", raw)
		}
		if diff := cmp.Diff(mustDecode(t, raw), doc); diff != "" {
			t.Errorf("root %s was modified (-want +got):\n%s", raw, diff)
		}
	}
}

func TestSetBoolFieldNestedCreation(t *testing.T) {
	doc := mustDecode(t, `{}`)

	if !SetBoolField(doc, []string{"browser", "eligibility"}, true) {
		t.Fatal("expected change on empty document")
	}
	want := map[string]any{"browser": map[string]any{"eligibility": true}}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("unexpected document (-want +got):\n%s", diff)
	}
}

func TestSetFieldIntermediateNotObject(t *testing.T) {
	doc := mustDecode(t, `{"a":{"b":"leaf"}}`)

	if SetStringField(doc, []string{"a", "b", "c"}, "x") {
		t.Fatal("expected no change when an intermediate node is a string")
	}
	if diff := cmp.Diff(mustDecode(t, `{"a":{"b":"leaf"}}`), doc); diff != "" {
		t.Fatalf("document was modified (-want +got):\n%s", diff)
	}
}

func TestSetFieldEmptyPath(t *testing.T) {
	doc := mustDecode(t, `{"a":1}`)
	if SetStringField(doc, nil, "x") {
		t.Fatal("expected no change for empty path")
	}
}

func TestReplaceAllStringValues(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantChanged bool
		want        string
	}{
		{
			name:        "nested objects and arrays",
			input:       `{"a":"CN","b":["CN","x",{"c":"CN"}],"d":{"e":{"f":"CN"}}}`,
			wantChanged: true,
			want:        `{"a":"US","b":["US","x",{"c":"US"}],"d":{"e":{"f":"US"}}}`,
		},
		{
			name:        "substrings untouched",
			input:       `{"a":"CNN","b":"preCN","c":["cn"," CN"]}`,
			wantChanged: false,
			want:        `{"a":"CNN","b":"preCN","c":["cn"," CN"]}`,
		},
		{
			name:        "keys are not values",
			input:       `{"CN":1}`,
			wantChanged: false,
			want:        `{"CN":1}`,
		},
		{
			name:        "root string",
			input:       `"CN"`,
			wantChanged: true,
			want:        `"US"`,
		},
		{
			name:        "scalars",
			input:       `[1,true,null,2.5]`,
			wantChanged: false,
			want:        `[1,true,null,2.5]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := ReplaceAllStringValues(mustDecode(t, tt.input), "CN", "US")
			if changed != tt.wantChanged {
				t.Fatalf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if diff := cmp.Diff(mustDecode(t, tt.want), got); diff != "" {
				t.Fatalf("document mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReplaceAllStringValuesVisitsEveryLeaf(t *testing.T) {
	// Every leaf matches, so the count of replacements equals the leaf count.
	doc := mustDecode(t, `{"a":"m","b":["m","m",["m"]],"c":{"d":"m","e":[{"f":"m"}]}}`)

	got, changed := ReplaceAllStringValues(doc, "m", "r")
	if !changed {
		t.Fatal("expected a change")
	}
	data, err := Encode(got)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if n := bytes.Count(data, []byte(`"r"`)); n != 6 {
		t.Fatalf("replaced %d leaves, want 6:\n%s", n, data)
	}
	if bytes.Contains(data, []byte(`"m"`)) {
		t.Fatalf("unreplaced leaf left behind:\n%s", data)
	}
}

func TestDecodeEncodePreservesUnknownFields(t *testing.T) {
	raw := `{"variations_country":"CN","big":12345678901234567890,"ratio":0.1000,"html":"<a&b>","list":[{"k":null}]}`
	doc := mustDecode(t, raw)

	if _, changed := StateFileRule(DefaultCountry)(doc); !changed {
		t.Fatal("expected a change")
	}
	data, err := Encode(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !json.Valid(data) {
		t.Fatalf("output is not valid JSON:\n%s", data)
	}
	for _, want := range []string{`12345678901234567890`, `0.1000`, `"<a&b>"`, `"k": null`, `"variations_country": "US"`} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("output missing %s:\n%s", want, data)
		}
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, raw := range []string{``, `{`, `{"a":}`, `{} {}`, `{"a":1}}`, `{"a":1}]`, `{"a":1} x`, `[1]]`} {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", raw)
		}
	}
}
