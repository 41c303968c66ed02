package generators

import (
	// Go Internal Packages
	"fmt"
	"math/rand"
	"time"

	// Local Packages
	models "tx-producer/models"

	// External Packages
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	accountTypes = []string{
		"Checking", "Savings", "Money Market", "Investment",
		"Home Loan", "Credit Card", "Auto Loan", "Personal Loan",
	}
	currencies = []string{
		"USD", "EUR", "GBP", "JPY", "CHF", "CAD", "AUD", "NZD", "SEK", "NOK",
		"DKK", "PLN", "CZK", "HUF", "INR", "CNY", "HKD", "SGD", "ZAR", "BRL",
		"MXN", "TRY", "KRW", "AED",
	}
	cardIssuers = []string{
		"visa", "mastercard", "discover", "american_express", "diners_club",
		"jcb", "maestro", "laser", "instapayment",
	}
)

const (
	recentWindow = 24 * time.Hour
	maxCents     = 100000 // 1000.00
)

// TxGenerator builds synthetic transactions from an injected random source.
// It is not safe for concurrent use.
type TxGenerator struct {
	rng *rand.Rand
	now func() time.Time
}

func NewTxGenerator(rng *rand.Rand, now func() time.Time) *TxGenerator {
	if now == nil {
		now = time.Now
	}
	return &TxGenerator{rng: rng, now: now}
}

// Generate returns a new transaction with every field populated
func (g *TxGenerator) Generate() models.Transaction {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// math/rand never fails a read
		id = uuid.New()
	}

	offset := time.Duration(g.rng.Int63n(int64(recentWindow)))
	ts := g.now().Add(-offset).UTC().Truncate(time.Millisecond)

	return models.Transaction{
		ID:          id.String(),
		Timestamp:   ts,
		Account:     fmt.Sprintf("%08d", g.rng.Intn(100_000_000)),
		AccountName: pick(g.rng, accountTypes) + " Account",
		Currency:    pick(g.rng, currencies),
		CardIssuer:  pick(g.rng, cardIssuers),
		Amount:      decimal.New(g.rng.Int63n(maxCents+1), -2).StringFixed(2),
	}
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}
