package generators

import (
	// Go Internal Packages
	"math/rand"

	// Local Packages
	errors "tx-producer/errors"
	models "tx-producer/models"
)

// DefaultMaxBatchSize is the upper bound of a batch, also used when none is configured
const DefaultMaxBatchSize = 500

type RecordGenerator interface {
	Generate() models.Transaction
}

// BatchAssembler fills batches of a random size in [1, maxSize] with generated
// records, maxSize never exceeding DefaultMaxBatchSize
type BatchAssembler struct {
	rng       *rand.Rand
	generator RecordGenerator
	maxSize   int
}

func NewBatchAssembler(rng *rand.Rand, generator RecordGenerator, maxSize int) *BatchAssembler {
	if maxSize < 1 || maxSize > DefaultMaxBatchSize {
		maxSize = DefaultMaxBatchSize
	}
	return &BatchAssembler{rng: rng, generator: generator, maxSize: maxSize}
}

// NextSize draws the size of the next batch
func (a *BatchAssembler) NextSize() int {
	return a.rng.Intn(a.maxSize) + 1
}

// Assemble builds one batch, keeping records in generation order
func (a *BatchAssembler) Assemble() (models.Batch, error) {
	n := a.NextSize()

	batch := make(models.Batch, n)
	for idx := range batch {
		tx := a.generator.Generate()
		msg, err := tx.Encode()
		if err != nil {
			return nil, errors.E(errors.Generation, "cannot encode transaction "+tx.ID, err)
		}
		batch[idx] = msg
	}
	return batch, nil
}
