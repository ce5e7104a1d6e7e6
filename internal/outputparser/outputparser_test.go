package outputparser

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const fencedAnswer = "Here is what I found:\n```json\n{\n\t\"commentary\": \"A fire broke out at a chemical plant.\",\n\t\"date\": \"2021-06-07\",\n\t\"source\": \"https://www.ndtv.com/pune-fire\"\n}\n```"

func TestFormatInstructions_ListsEveryField(t *testing.T) {
	got := FormatInstructions(CommentarySchemas)

	if !strings.Contains(got, "```json") {
		t.Errorf("expected json fence in instructions, got %q", got)
	}
	for _, s := range CommentarySchemas {
		line := `"` + s.Name + `": string  // ` + s.Description
		if !strings.Contains(got, line) {
			t.Errorf("expected line %q in instructions", line)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]string
		wantErr error
		field   string
	}{
		{
			name: "fenced block",
			raw:  fencedAnswer,
			want: map[string]string{
				"commentary": "A fire broke out at a chemical plant.",
				"date":       "2021-06-07",
				"source":     "https://www.ndtv.com/pune-fire",
			},
		},
		{
			name: "bare object with surrounding text",
			raw:  `Final: {"commentary": "Flooding in Assam", "date": "2022-06-20", "source": "https://bbc.in/x"} done`,
			want: map[string]string{
				"commentary": "Flooding in Assam",
				"date":       "2022-06-20",
				"source":     "https://bbc.in/x",
			},
		},
		{
			name: "empty commentary accepted",
			raw:  `{"commentary": "", "date": "unknown", "source": "https://thehindu.com"}`,
			want: map[string]string{"commentary": "", "date": "unknown", "source": "https://thehindu.com"},
		},
		{
			name: "non-string values rendered as json",
			raw:  `{"commentary": null, "date": 2021, "source": ["https://a", "https://b"]}`,
			want: map[string]string{"commentary": "", "date": "2021", "source": `["https://a","https://b"]`},
		},
		{
			name:    "missing field",
			raw:     `{"commentary": "Quake in Haiti", "source": "https://ndtv.com"}`,
			wantErr: ErrMissingField,
			field:   "date",
		},
		{
			name:    "plain prose",
			raw:     "I could not find any recent disasters at this location.",
			wantErr: ErrUnrecognized,
		},
		{
			name:    "malformed json",
			raw:     "```json\n{\"commentary\": \"x\", \"date\": }\n```",
			wantErr: ErrUnrecognized,
		},
		{
			name:    "array instead of object",
			raw:     "```json\n[\"a\", \"b\"]\n```",
			wantErr: ErrUnrecognized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw, CommentarySchemas)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("expected *ParseError, got %T", err)
				}
				if pe.Field != tt.field {
					t.Errorf("expected field %q, got %q", tt.field, pe.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	first, err := Parse(fencedAnswer, CommentarySchemas)
	if err != nil {
		t.Fatalf("first Parse failed: %v", err)
	}
	second, err := Parse(fencedAnswer, CommentarySchemas)
	if err != nil {
		t.Fatalf("second Parse failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected equal records, got %v and %v", first, second)
	}
}

func TestParse_ExtraFieldsIgnored(t *testing.T) {
	raw := `{"commentary": "c", "date": "d", "source": "s", "location": "Pune"}`
	got, err := Parse(raw, CommentarySchemas)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, ok := got["location"]; ok {
		t.Error("expected undeclared field to be dropped")
	}
}
