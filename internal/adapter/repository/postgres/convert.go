package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

// Type conversion helpers.
func moneyToNumeric(m domain.Money) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(m.String())

	return n
}

func numericToMoney(n pgtype.Numeric) (domain.Money, error) {
	if !n.Valid || n.Int == nil {
		return domain.ZeroMoney, nil
	}

	return domain.MoneyFromDecimal(decimal.NewFromBigInt(n.Int, n.Exp))
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
