package geocoding

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViaCEP(t *testing.T, handler http.HandlerFunc) (*ViaCEP, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	v := NewViaCEP(logrus.New(), 5*time.Second)
	v.baseURL = server.URL
	return v, server
}

func TestCleanPostalCode(t *testing.T) {
	assert.Equal(t, "71901070", CleanPostalCode("71901-070"))
	assert.Equal(t, "71901070", CleanPostalCode("71.901 070"))
	assert.Equal(t, "", CleanPostalCode("abc"))
}

func TestViaCEPLookup(t *testing.T) {
	var requested string
	v, _ := newTestViaCEP(t, func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		fmt.Fprint(w, `{"cep":"70040-010","logradouro":"Praça dos Três Poderes","bairro":"Zona Cívico-Administrativa","localidade":"Brasília","uf":"DF"}`)
	})

	addr, err := v.Lookup(context.Background(), "70040-010")
	require.NoError(t, err)
	assert.Equal(t, "/ws/70040010/json/", requested)
	assert.Equal(t, "70040010", addr.PostalCode)
	assert.Equal(t, "Praça dos Três Poderes", addr.Street)
	assert.Equal(t, "Brasília", addr.City) // 70040 range maps back to Brasília
	assert.Equal(t, "DF", addr.State)
}

func TestViaCEPLookupRewritesAdministrativeRegion(t *testing.T) {
	v, _ := newTestViaCEP(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"cep":"71901-070","logradouro":"Rua 7 Norte","bairro":"Águas Claras","localidade":"Brasília","uf":"DF"}`)
	})

	addr, err := v.Lookup(context.Background(), "71901070")
	require.NoError(t, err)
	assert.Equal(t, "Águas Claras", addr.City)
}

func TestViaCEPLookupNoRewriteOutsideDF(t *testing.T) {
	// A directory answer of "Brasília" for a non-DF code is left alone.
	v, _ := newTestViaCEP(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"cep":"01310-100","logradouro":"Avenida Paulista","bairro":"Bela Vista","localidade":"Brasília","uf":"SP"}`)
	})

	addr, err := v.Lookup(context.Background(), "01310100")
	require.NoError(t, err)
	assert.Equal(t, "Brasília", addr.City)
}

func TestViaCEPLookupUnknownCode(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"boolean erro", `{"erro": true}`},
		{"string erro", `{"erro": "true"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newTestViaCEP(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})

			_, err := v.Lookup(context.Background(), "99999999")
			assert.ErrorIs(t, err, ErrAddressNotFound)
		})
	}
}

func TestViaCEPLookupInvalidInput(t *testing.T) {
	v, _ := newTestViaCEP(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no external call expected for invalid input")
	})

	for _, input := range []string{"", "1234567", "123456789", "abc"} {
		_, err := v.Lookup(context.Background(), input)
		assert.ErrorIs(t, err, ErrInvalidPostalCode, "input %q", input)
	}
}

func TestViaCEPLookupServerError(t *testing.T) {
	v, _ := newTestViaCEP(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := v.Lookup(context.Background(), "70040010")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAddressNotFound)
}
