package blackbox

import (
	"encoding/json"
	"testing"

	"github.com/marcus/atelier/internal/models"
)

func TestPrepareTransformDictInput(t *testing.T) {
	c := models.CriteriaFromPairs("Mot 1", "  DES ", "  ", "ignored", "Mot 2", "AU")
	got, err := json.Marshal(PrepareTransformDictInput(c))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"Mot 1":"DES","Mot 2":"AU"}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestFormatTransformDictResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"wrapped output_dict", `{"output_dict":{"b":"2","a":"1"}}`, "b: 2\na: 1"},
		{"wrapped result", `{"result":{"k":["x","y"]}}`, "k: x, y"},
		{"top level object", `{"k":5,"n":{"x": 1}}`, `k: 5` + "\n" + `n: {"x":1}`},
		{"non object reply", `[1, 2]`, "[1,2]"},
		{"string reply", `"done"`, `"done"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTransformDictResponse([]byte(tt.body)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
