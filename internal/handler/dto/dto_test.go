package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pokecatch/pokecatch/internal/model"
)

func TestToCaughtListResponse_EmptyIsArray(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(ToCaughtListResponse(nil))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"data":[]}` {
		t.Errorf("got %s, want {\"data\":[]}", data)
	}
}

func TestToCaughtResponse_IncludesPokemon(t *testing.T) {
	t.Parallel()

	c := &model.CaughtPokemon{
		ID:        "c1",
		UserID:    "u1",
		PokemonID: "p1",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Pokemon:   &model.Pokemon{ID: "p1", Name: "pikachu"},
	}

	data, err := json.Marshal(ToCaughtResponse(c))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"pokemon":{"id":"p1","name":"pikachu"}`) {
		t.Errorf("pokemon missing: %s", data)
	}

	c.Pokemon = nil
	data, _ = json.Marshal(ToCaughtResponse(c))
	if strings.Contains(string(data), "pokemon\":") {
		t.Errorf("pokemon should be omitted: %s", data)
	}
}
