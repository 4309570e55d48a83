package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"imoveisdf/server/config"
)

var (
	// ErrInvalidPostalCode means the input did not contain exactly 8 digits.
	ErrInvalidPostalCode = errors.New("postal code must have exactly 8 digits")

	// ErrAddressNotFound means the directory does not know the code.
	ErrAddressNotFound = errors.New("postal code not found in directory")

	// ErrNoCoordinates means no geocoding attempt produced a usable position.
	ErrNoCoordinates = errors.New("no usable coordinates for address")
)

// Address is the structured result of a postal directory lookup.
type Address struct {
	PostalCode string `json:"postal_code"`
	Street     string `json:"street"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// CleanPostalCode strips everything that is not a digit.
func CleanPostalCode(code string) string {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ViaCEP resolves postal codes against the public ViaCEP directory. A single
// external call per lookup, no retries; failures surface to the caller.
type ViaCEP struct {
	logger  *logrus.Logger
	client  *http.Client
	baseURL string
}

func NewViaCEP(logger *logrus.Logger, timeout time.Duration) *ViaCEP {
	return &ViaCEP{
		logger:  logger,
		client:  &http.Client{Timeout: timeout},
		baseURL: "https://viacep.com.br",
	}
}

type viaCEPResponse struct {
	CEP        string          `json:"cep"`
	Logradouro string          `json:"logradouro"`
	Bairro     string          `json:"bairro"`
	Localidade string          `json:"localidade"`
	UF         string          `json:"uf"`
	Erro       json.RawMessage `json:"erro"` // true or "true" when unknown
}

// Lookup fetches the structured address for an 8-digit postal code. Codes in
// the Federal District allocation labelled with the generic "Brasília" city
// are rewritten to their administrative region.
func (v *ViaCEP) Lookup(ctx context.Context, code string) (*Address, error) {
	clean := CleanPostalCode(code)
	if len(clean) != 8 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPostalCode, code)
	}

	url := fmt.Sprintf("%s/ws/%s/json/", v.baseURL, clean)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.WithError(err).WithField("postal_code", clean).Error("Directory lookup failed")
		return nil, fmt.Errorf("directory lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned status %d for %s", resp.StatusCode, clean)
	}

	var payload viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse directory response: %w", err)
	}

	if len(payload.Erro) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrAddressNotFound, clean)
	}

	city := payload.Localidade
	if config.IsFederalDistrictCode(clean) && city == "Brasília" {
		if region, ok := config.RegionForCode(clean); ok && region != city {
			v.logger.WithFields(logrus.Fields{
				"postal_code": clean,
				"region":      region,
			}).Info("Rewriting generic capital city to administrative region")
			city = region
		}
	}

	return &Address{
		PostalCode: clean,
		Street:     payload.Logradouro,
		District:   payload.Bairro,
		City:       city,
		State:      payload.UF,
	}, nil
}
