package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/itchyny/gojq"
)

func TestQueryJSONLLines_FiltersByField(t *testing.T) {
	input := strings.Join([]string{
		`{"direction":"OUT","method":"invoke_tool"}`,
		`{"direction":"IN","method":"invoke_tool"}`,
		`{"direction":"OUT","method":"ping"}`,
	}, "\n")

	query, err := gojq.Parse(`select(.direction == "OUT") | .method`)
	if err != nil {
		t.Fatalf("gojq.Parse: %v", err)
	}

	var out bytes.Buffer
	if err := queryJSONLLines(strings.NewReader(input), query, &out); err != nil {
		t.Fatalf("queryJSONLLines: %v", err)
	}

	dec := json.NewDecoder(&out)
	var results []string
	for {
		var v string
		if err := dec.Decode(&v); err != nil {
			break
		}
		results = append(results, v)
	}

	if len(results) != 2 || results[0] != "invoke_tool" || results[1] != "ping" {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestQueryJSONLLines_SkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`not json`,
		`{"a":1}`,
	}, "\n")

	query, err := gojq.Parse(`.a`)
	if err != nil {
		t.Fatalf("gojq.Parse: %v", err)
	}

	var out bytes.Buffer
	if err := queryJSONLLines(strings.NewReader(input), query, &out); err != nil {
		t.Fatalf("queryJSONLLines: %v", err)
	}

	if strings.TrimSpace(out.String()) != "1" {
		t.Errorf("expected only the valid line's result, got %q", out.String())
	}
}
