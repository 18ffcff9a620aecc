package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID    uuid.UUID       `validate:"uuid_required"`
	Name  string          `validate:"notblank"`
	Price decimal.Decimal `validate:"decimal_nonneg"`
	Cost  decimal.Decimal `validate:"decimal_positive"`
}

func TestValidateStruct(t *testing.T) {
	valid := sample{ID: uuid.New(), Name: "tomatoes", Price: decimal.Zero, Cost: decimal.NewFromInt(3)}
	assert.Empty(t, ValidateStruct(&valid))

	t.Run("nil uuid", func(t *testing.T) {
		s := valid
		s.ID = uuid.Nil
		errs := ValidateStruct(&s)
		require.Len(t, errs, 1)
		assert.Equal(t, "uuid_required", errs[0].Tag)
	})

	t.Run("blank name", func(t *testing.T) {
		s := valid
		s.Name = "   "
		errs := ValidateStruct(&s)
		require.Len(t, errs, 1)
		assert.Equal(t, "notblank", errs[0].Tag)
		assert.Equal(t, "Validation failed: Field 'sample.Name' failed on tag 'notblank'", Describe(errs))
	})

	t.Run("negative price", func(t *testing.T) {
		s := valid
		s.Price = decimal.NewFromInt(-1)
		errs := ValidateStruct(&s)
		require.Len(t, errs, 1)
		assert.Equal(t, "decimal_nonneg", errs[0].Tag)
	})

	t.Run("zero cost", func(t *testing.T) {
		s := valid
		s.Cost = decimal.Zero
		errs := ValidateStruct(&s)
		require.Len(t, errs, 1)
		assert.Equal(t, "decimal_positive", errs[0].Tag)
	})
}

func TestDescribeEmpty(t *testing.T) {
	assert.Equal(t, "", Describe(nil))
}
